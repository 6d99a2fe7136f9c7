package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/config"
	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/monitor"
)

var (
	cfgFile string
	appCfg  *config.Config
	metrics *monitor.Metrics

	metricsServer *http.Server
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "safe-cli",
	Short: "Safe 多签钱包命令行工具",
	Long: `管理 Safe 多签钱包：查询状态、构建交易、收集 owner 签名并执行，
部署新钱包，以及通过交易服务管理委托人。

签名保存在本地签名存储中（默认 badger），多次调用之间可以逐个 owner 追加签名。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		appCfg = cfg

		if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
			return err
		}
		if cfg.Metrics.Enabled {
			startMetricsServer(cfg.Metrics.Addr)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopMetricsServer()
		logger.Sync()
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./safe.yaml 或 ./config/safe.yaml）")
}

func startMetricsServer(addr string) {
	registry := prometheus.NewRegistry()
	metrics = monitor.NewMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}

func stopMetricsServer() {
	if metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
	metricsServer = nil
}

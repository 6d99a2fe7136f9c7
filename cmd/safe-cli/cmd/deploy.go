package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/services/safe"
	"github.com/safekit/safe-client-sdk-go/types"
)

var (
	deployOwners    []string
	deployThreshold uint64
	deploySalt      string
	deployPredict   bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "通过代理工厂部署新钱包",
	Long: `使用 CREATE2 部署新的 Safe 代理。
相同的 owners、门限与 salt 得到相同地址，--predict 只计算地址不发送交易。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		salt, ok := new(big.Int).SetString(deploySalt, 10)
		if !ok || salt.Sign() < 0 {
			return fmt.Errorf("invalid salt nonce %q", deploySalt)
		}

		s, err := openSession(ctx, !deployPredict)
		if err != nil {
			return err
		}
		defer s.Close()

		version := types.SafeVersion(appCfg.Safe.Version)
		f, err := safe.NewFactory(ctx, safe.FactoryConfig{
			Adapter:            s.adapter,
			Version:            version,
			ContractNetworks:   appCfg.ContractNetworks,
			IsL1SafeMasterCopy: appCfg.Safe.L1,
			Logger:             logger.Named("factory"),
		})
		if err != nil {
			return err
		}

		account := safe.SafeAccountConfig{Owners: deployOwners, Threshold: deployThreshold}
		out := cmd.OutOrStdout()
		if deployPredict {
			addr, err := f.PredictSafeAddress(ctx, account, salt)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "predicted address: %s\n", addr.Hex())
			return nil
		}

		addr, result, err := f.DeploySafe(ctx, account, salt, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deployed %s in tx %s (block %d)\n", addr.Hex(), result.Hash.Hex(), result.BlockNumber)
		return nil
	},
}

func init() {
	deployCmd.Flags().StringSliceVar(&deployOwners, "owners", nil, "owner 地址，逗号分隔")
	deployCmd.Flags().Uint64Var(&deployThreshold, "threshold", 1, "签名门限")
	deployCmd.Flags().StringVar(&deploySalt, "salt-nonce", "0", "CREATE2 salt nonce")
	deployCmd.Flags().BoolVar(&deployPredict, "predict", false, "只计算部署地址")
	_ = deployCmd.MarkFlagRequired("owners")
	rootCmd.AddCommand(deployCmd)
}

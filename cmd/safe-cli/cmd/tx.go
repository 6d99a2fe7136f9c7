package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/safekit/safe-client-sdk-go/services/safe"
	"github.com/safekit/safe-client-sdk-go/services/transaction"
	"github.com/safekit/safe-client-sdk-go/services/txservice"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

var (
	txFilePath string
	txNonce    int64
	txSafeGas  string
	txOutPath  string
	txEthSign  bool
	txOrigin   string

	callTo       string
	callValue    string
	callData     string
	callDelegate bool
	ownerThresh  uint64
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "构建、签名与执行多签交易",
}

var txCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "构建交易并写入交易文件",
}

var txCreateCallCmd = &cobra.Command{
	Use:   "call",
	Short: "普通调用或转账",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := utils.ParseAddress(callTo)
		if err != nil {
			return err
		}
		value, err := parseEther(callValue)
		if err != nil {
			return err
		}
		data, err := decodeHexFlag(callData)
		if err != nil {
			return err
		}
		op := types.Call
		if callDelegate {
			op = types.DelegateCall
		}
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateTransaction(ctx, []types.MetaTransactionData{{To: to, Value: value, Data: data, Operation: op}}, opts)
		})
	},
}

var txEnableModuleCmd = &cobra.Command{
	Use:   "enable-module <module>",
	Short: "启用模块",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateEnableModuleTx(ctx, args[0], opts)
		})
	},
}

var txDisableModuleCmd = &cobra.Command{
	Use:   "disable-module <module>",
	Short: "停用模块",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateDisableModuleTx(ctx, args[0], opts)
		})
	},
}

var txAddOwnerCmd = &cobra.Command{
	Use:   "add-owner <owner>",
	Short: "添加 owner，可同时调整门限",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := thresholdFlag(cmd)
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateAddOwnerTx(ctx, args[0], threshold, opts)
		})
	},
}

var txRemoveOwnerCmd = &cobra.Command{
	Use:   "remove-owner <owner>",
	Short: "移除 owner，可同时调整门限",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := thresholdFlag(cmd)
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateRemoveOwnerTx(ctx, args[0], threshold, opts)
		})
	},
}

var txSwapOwnerCmd = &cobra.Command{
	Use:   "swap-owner <old> <new>",
	Short: "替换 owner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateSwapOwnerTx(ctx, args[0], args[1], opts)
		})
	},
}

var txChangeThresholdCmd = &cobra.Command{
	Use:   "change-threshold <threshold>",
	Short: "修改门限",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid threshold %q: %w", args[0], err)
		}
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, opts *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateChangeThresholdTx(ctx, threshold, opts)
		})
	},
}

var txRejectCmd = &cobra.Command{
	Use:   "reject <nonce>",
	Short: "构建占用指定 nonce 的拒绝交易",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nonce, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid nonce %q: %w", args[0], err)
		}
		return createTx(cmd, func(ctx context.Context, sdk *safe.Safe, _ *transaction.Options) (*types.SafeTransaction, error) {
			return sdk.CreateRejectionTransaction(ctx, nonce)
		})
	},
}

var txSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "用当前签名者签名交易文件中的交易",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, true, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			var (
				state safe.State
				err   error
			)
			if txEthSign {
				var sig types.SafeSignature
				sig, err = sdk.SignTransactionHash(ctx, tx.Hash())
				if err != nil {
					return err
				}
				state, err = sdk.AddSignature(ctx, tx.Hash(), sig)
			} else {
				state, err = sdk.SignTransaction(ctx, tx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed %s, state: %s\n", tx.Hash().Hex(), state)
			return nil
		})
	},
}

var txApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "在链上调用 approveHash 批准交易",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, true, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			state, err := sdk.ApproveTransactionHash(ctx, tx.Hash(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s, state: %s\n", tx.Hash().Hex(), state)
			return nil
		})
	},
}

var txStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示交易的签名收集状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, false, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			if _, err := sdk.IsExecutable(ctx, tx.Hash()); err != nil {
				return err
			}
			state, err := sdk.State(tx.Hash())
			if err != nil {
				return err
			}
			data := tx.Data()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SafeTxHash: %s\n", tx.Hash().Hex())
			fmt.Fprintf(out, "To:         %s\n", data.To.Hex())
			fmt.Fprintf(out, "Value:      %s ETH\n", formatEther(data.Value))
			fmt.Fprintf(out, "Operation:  %s\n", data.Operation)
			fmt.Fprintf(out, "Nonce:      %d\n", data.Nonce)
			fmt.Fprintf(out, "State:      %s\n", state)
			return nil
		})
	},
}

var txExecuteCmd = &cobra.Command{
	Use:   "execute",
	Short: "签名达到门限后执行交易",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, true, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			result, err := sdk.ExecuteTransaction(ctx, tx.Hash(), nil)
			if err != nil {
				return err
			}
			state, _ := sdk.State(tx.Hash())
			fmt.Fprintf(cmd.OutOrStdout(), "ethereum tx %s in block %d, state: %s\n", result.Hash.Hex(), result.BlockNumber, state)
			return nil
		})
	},
}

var txAbandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "放弃交易并清除已收集的签名",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, false, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			if err := sdk.Abandon(ctx, tx.Hash()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "abandoned %s\n", tx.Hash().Hex())
			return nil
		})
	},
}

var txProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "把交易与当前签名者的签名提交到交易服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTxFile(cmd, true, func(ctx context.Context, sdk *safe.Safe, tx *types.SafeTransaction) error {
			sig, err := sdk.SignTypedData(ctx, tx)
			if err != nil {
				return err
			}
			svc, err := newServiceClient()
			if err != nil {
				return err
			}
			err = svc.ProposeTransaction(ctx, txservice.ProposeTransactionProps{
				Safe:       sdk.GetAddress().Hex(),
				Sender:     sig.Signer.Hex(),
				SafeTxHash: tx.Hash(),
				Data:       txservice.NewProposedTransactionData(tx),
				Signature:  sig.Data,
				Origin:     txOrigin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "proposed %s to %s\n", tx.Hash().Hex(), svc.BaseURL())
			return nil
		})
	},
}

// createTx 构建交易并写入 --out 指定的文件
func createTx(cmd *cobra.Command, build func(context.Context, *safe.Safe, *transaction.Options) (*types.SafeTransaction, error)) error {
	ctx := cmd.Context()
	opts, err := buildOptions()
	if err != nil {
		return err
	}

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()
	sdk, err := s.connect(ctx)
	if err != nil {
		return err
	}

	tx, err := build(ctx, sdk, opts)
	if err != nil {
		return err
	}
	if err := writeTxFile(txOutPath, sdk.GetAddress(), sdk.GetChainID(), tx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "safeTxHash: %s\nnonce: %d\nwritten to %s\n", tx.Hash().Hex(), tx.Data().Nonce, txOutPath)
	return nil
}

// withTxFile 打开会话、连接钱包并登记 --file 中的交易
func withTxFile(cmd *cobra.Command, needSigner bool, run func(context.Context, *safe.Safe, *types.SafeTransaction) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, needSigner)
	if err != nil {
		return err
	}
	defer s.Close()
	sdk, err := s.connect(ctx)
	if err != nil {
		return err
	}
	tx, err := importTxFile(ctx, sdk, txFilePath)
	if err != nil {
		return err
	}
	return run(ctx, sdk, tx)
}

func buildOptions() (*transaction.Options, error) {
	opts := &transaction.Options{}
	if txNonce >= 0 {
		nonce := uint64(txNonce)
		opts.Nonce = &nonce
	}
	if txSafeGas != "" {
		gas, ok := new(big.Int).SetString(txSafeGas, 10)
		if !ok || gas.Sign() < 0 {
			return nil, fmt.Errorf("invalid safe-tx-gas %q", txSafeGas)
		}
		opts.SafeTxGas = gas
	}
	return opts, nil
}

func thresholdFlag(cmd *cobra.Command) *uint64 {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	threshold := ownerThresh
	return &threshold
}

func decodeHexFlag(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data %q: %w", s, err)
	}
	return data, nil
}

func printAddresses(cmd *cobra.Command, addrs []common.Address) {
	for _, o := range addrs {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", o.Hex())
	}
}

func init() {
	for _, c := range []*cobra.Command{txCreateCallCmd, txEnableModuleCmd, txDisableModuleCmd, txAddOwnerCmd, txRemoveOwnerCmd, txSwapOwnerCmd, txChangeThresholdCmd, txRejectCmd} {
		c.Flags().Int64Var(&txNonce, "nonce", -1, "交易 nonce（默认读取链上当前值）")
		c.Flags().StringVar(&txSafeGas, "safe-tx-gas", "", "safeTxGas")
		c.Flags().StringVarP(&txOutPath, "out", "o", "safe-tx.json", "交易文件输出路径")
		txCreateCmd.AddCommand(c)
	}
	txCreateCallCmd.Flags().StringVar(&callTo, "to", "", "调用目标地址")
	txCreateCallCmd.Flags().StringVar(&callValue, "value", "", "转账金额（ETH）")
	txCreateCallCmd.Flags().StringVar(&callData, "data", "", "调用数据（0x 十六进制）")
	txCreateCallCmd.Flags().BoolVar(&callDelegate, "delegatecall", false, "以 DelegateCall 执行")
	_ = txCreateCallCmd.MarkFlagRequired("to")

	for _, c := range []*cobra.Command{txAddOwnerCmd, txRemoveOwnerCmd} {
		c.Flags().Uint64Var(&ownerThresh, "threshold", 0, "新的门限（默认保持当前值）")
	}

	for _, c := range []*cobra.Command{txSignCmd, txApproveCmd, txStatusCmd, txExecuteCmd, txAbandonCmd, txProposeCmd} {
		c.Flags().StringVarP(&txFilePath, "file", "f", "safe-tx.json", "交易文件路径")
		txCmd.AddCommand(c)
	}
	txSignCmd.Flags().BoolVar(&txEthSign, "eth-sign", false, "使用 eth_sign 签名摘要（v+4）")
	txProposeCmd.Flags().StringVar(&txOrigin, "origin", "safe-cli", "提交来源标记")

	txCmd.AddCommand(txCreateCmd)
	rootCmd.AddCommand(txCmd)
}

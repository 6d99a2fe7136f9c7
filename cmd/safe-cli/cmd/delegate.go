package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safekit/safe-client-sdk-go/services/txservice"
)

var delegateLabel string

var delegateCmd = &cobra.Command{
	Use:   "delegate",
	Short: "通过交易服务管理委托人",
}

var delegateListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出钱包的委托人",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServiceClient()
		if err != nil {
			return err
		}
		list, err := svc.GetSafeDelegates(cmd.Context(), appCfg.Safe.Address)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d delegate(s)\n", list.Count)
		for _, d := range list.Results {
			fmt.Fprintf(out, "  %s  delegator=%s  label=%q\n", d.Delegate, d.Delegator, d.Label)
		}
		return nil
	},
}

var delegateAddCmd = &cobra.Command{
	Use:   "add <delegate>",
	Short: "添加委托人（签名者必须是 owner）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := loadSigner(appCfg.Signer)
		if err != nil {
			return err
		}
		svc, err := newServiceClient()
		if err != nil {
			return err
		}
		created, err := svc.AddSafeDelegate(cmd.Context(), txservice.AddDelegateConfig{
			Safe:     appCfg.Safe.Address,
			Delegate: args[0],
			Label:    delegateLabel,
			Signer:   signer,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "delegate %s added by %s\n", created.Delegate, created.Delegator)
		return nil
	},
}

var delegateRemoveCmd = &cobra.Command{
	Use:   "remove <delegate>",
	Short: "移除委托人",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := loadSigner(appCfg.Signer)
		if err != nil {
			return err
		}
		svc, err := newServiceClient()
		if err != nil {
			return err
		}
		err = svc.RemoveSafeDelegate(cmd.Context(), txservice.DeleteDelegateConfig{
			Safe:     appCfg.Safe.Address,
			Delegate: args[0],
			Signer:   signer,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "delegate %s removed\n", args[0])
		return nil
	},
}

var serviceInfoCmd = &cobra.Command{
	Use:   "service-info",
	Short: "显示交易服务信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServiceClient()
		if err != nil {
			return err
		}
		info, err := svc.GetServiceInfo(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (api %s)\n", info.Name, info.Version, info.APIVersion)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "列出交易服务中尚未执行的交易",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServiceClient()
		if err != nil {
			return err
		}
		list, err := svc.GetPendingTransactions(cmd.Context(), appCfg.Safe.Address, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, tx := range list.Results {
			required := uint64(0)
			if tx.ConfirmationsRequired != nil {
				required = *tx.ConfirmationsRequired
			}
			fmt.Fprintf(out, "nonce %d  %s  confirmations %d/%d\n", tx.Nonce, tx.SafeTxHash, len(tx.Confirmations), required)
		}
		return nil
	},
}

func init() {
	delegateAddCmd.Flags().StringVar(&delegateLabel, "label", "", "委托人标签")
	delegateCmd.AddCommand(delegateListCmd, delegateAddCmd, delegateRemoveCmd)
	rootCmd.AddCommand(delegateCmd, serviceInfoCmd, pendingCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示钱包的链上状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.Close()

		sdk, err := s.connect(ctx)
		if err != nil {
			return err
		}

		nonce, err := sdk.GetNonce(ctx)
		if err != nil {
			return err
		}
		threshold, err := sdk.GetThreshold(ctx)
		if err != nil {
			return err
		}
		owners, err := sdk.GetOwners(ctx)
		if err != nil {
			return err
		}
		modules, err := sdk.GetModules(ctx)
		if err != nil {
			return err
		}
		balance, err := sdk.GetBalance(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "================ Safe ================")
		fmt.Fprintf(out, "Address:    %s\n", sdk.GetAddress().Hex())
		fmt.Fprintf(out, "Version:    %s\n", sdk.GetVersion())
		fmt.Fprintf(out, "Chain:      %d\n", sdk.GetChainID())
		fmt.Fprintf(out, "Nonce:      %d\n", nonce)
		fmt.Fprintf(out, "Threshold:  %d / %d\n", threshold, len(owners))
		fmt.Fprintf(out, "Balance:    %s ETH\n", formatEther(balance))
		fmt.Fprintln(out, "Owners:")
		printAddresses(cmd, owners)
		fmt.Fprintln(out, "Modules:")
		printAddresses(cmd, modules)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

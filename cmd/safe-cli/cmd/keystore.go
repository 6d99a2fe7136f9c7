package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safekit/safe-client-sdk-go/wallet"
)

var (
	keystoreDir    string
	keystoreImport string
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "管理签名者 keystore 文件",
}

var keystoreNewCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新私钥（或导入 --private-key）并加密保存",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			w   wallet.Wallet
			err error
		)
		if keystoreImport != "" {
			w, err = wallet.NewWalletFromPrivateKey(keystoreImport)
		} else {
			w, err = wallet.NewWallet()
		}
		if err != nil {
			return err
		}

		password, err := readPassword("设置 keystore 密码: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("再次输入密码: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		km, err := wallet.NewKeystoreManager(keystoreDir)
		if err != nil {
			return err
		}
		path, err := km.Save(w, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nkeystore: %s\n", w.Address().Hex(), path)
		return nil
	},
}

func init() {
	keystoreNewCmd.Flags().StringVar(&keystoreDir, "dir", "./keystore", "keystore 目录")
	keystoreNewCmd.Flags().StringVar(&keystoreImport, "private-key", "", "导入已有私钥（十六进制）")
	keystoreCmd.AddCommand(keystoreNewCmd)
	rootCmd.AddCommand(keystoreCmd)
}

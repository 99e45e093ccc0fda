package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
)

var errPasswordRequired = errors.New("password required (-p)")

func initCmd() *cobra.Command {
	var mnemonic string
	var words int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vault with a fresh or provided seed phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassword(); err != nil {
				return err
			}

			if mnemonic == "" {
				bits := 128
				if words == 24 {
					bits = 256
				}
				var err error
				mnemonic, err = hdkey.GenerateMnemonic(bits)
				if err != nil {
					return err
				}
			}

			hd, err := hdkey.New(mnemonic, "")
			if err != nil {
				return err
			}
			defer hd.Destroy()

			acct, err := hd.DeriveAddress(0)
			if err != nil {
				return err
			}
			meta := domain.AccountMetadata{
				Address: acct.Address,
				Name:    "Account 0",
				Index:   0,
				Kind:    domain.KeyKindDerived,
			}

			if err := wireCtx.Vault.Create(mnemonic, password, []domain.AccountMetadata{meta}); err != nil {
				return err
			}

			fmt.Println("Vault created. Write down the seed phrase:")
			fmt.Println()
			fmt.Printf("  %s\n\n", mnemonic)
			fmt.Printf("Account 0: %s\n", acct.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "import an existing seed phrase")
	cmd.Flags().IntVar(&words, "words", 12, "word count for a fresh phrase (12 or 24)")
	return cmd
}

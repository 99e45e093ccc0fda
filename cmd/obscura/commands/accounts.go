package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and derive wallet accounts",
	}
	cmd.AddCommand(accountsListCmd(), accountsNewCmd())
	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlockVault(); err != nil {
				return err
			}
			defer wireCtx.Vault.Lock()

			accounts, err := wireCtx.Vault.Accounts()
			if err != nil {
				return err
			}
			for _, a := range accounts {
				fmt.Printf("%-12s %s (%s)\n", a.Name, a.Address, a.Kind)
			}
			return nil
		},
	}
}

func accountsNewCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Derive the next account from the seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlockVault(); err != nil {
				return err
			}
			defer wireCtx.Vault.Lock()

			mnemonic, err := wireCtx.Vault.Mnemonic()
			if err != nil {
				return err
			}
			hd, err := hdkey.New(mnemonic, "")
			if err != nil {
				return err
			}
			defer hd.Destroy()

			accounts, err := wireCtx.Vault.Accounts()
			if err != nil {
				return err
			}
			next := int64(0)
			for _, a := range accounts {
				if a.Kind == domain.KeyKindDerived && int64(a.Index) >= next {
					next = int64(a.Index) + 1
				}
			}

			acct, err := hd.DeriveAddress(next)
			if err != nil {
				return err
			}
			if name == "" {
				name = fmt.Sprintf("Account %d", next)
			}
			err = wireCtx.Vault.SetAccount(domain.AccountMetadata{
				Address: acct.Address,
				Name:    name,
				Index:   acct.Index,
				Kind:    domain.KeyKindDerived,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", name, acct.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for the account")
	return cmd
}

// unlockVault opens the vault with the -p password. A wrong password and a
// tampered blob are indistinguishable on purpose.
func unlockVault() error {
	if err := requirePassword(); err != nil {
		return err
	}
	ok, err := wireCtx.Vault.Unlock(password)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unable to unlock vault")
	}
	return nil
}

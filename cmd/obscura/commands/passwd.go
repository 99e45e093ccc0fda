package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func passwdCmd() *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the vault password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassword(); err != nil {
				return err
			}
			if newPassword == "" {
				return fmt.Errorf("new password required (--new)")
			}
			if err := wireCtx.Vault.ChangePassword(password, newPassword); err != nil {
				return err
			}
			wireCtx.Vault.Lock()
			fmt.Println("Password changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&newPassword, "new", "", "new vault password")
	return cmd
}

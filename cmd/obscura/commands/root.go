package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"obscura/internal/app"
)

var (
	home     string
	password string
	wireCtx  *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "obscura",
		Short: "Non-custodial privacy wallet key manager",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".obscura")
			}
			w, err := app.NewWire(app.Config{Home: home})
			if err != nil {
				return err
			}
			wireCtx = w
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wireCtx != nil {
				return wireCtx.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.obscura)")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "vault password")

	root.AddCommand(initCmd(), accountsCmd(), signCmd(), passwdCmd(),
		guardiansCmd(), recoverCmd(), stealthCmd())
	return root.Execute()
}

func requirePassword() error {
	if password == "" {
		return errPasswordRequired
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"obscura/internal/services/recovery"
	"obscura/internal/util/memzero"
)

func guardiansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardians",
		Short: "Manage social-recovery guardians",
	}
	cmd.AddCommand(guardiansSetupCmd(), guardiansListCmd(),
		guardiansRemoveCmd(), guardiansInviteCmd())
	return cmd
}

func guardiansSetupCmd() *cobra.Command {
	var threshold int
	var specs []string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Split the wallet secret across guardians",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]recovery.GuardianInput, 0, len(specs))
			for _, s := range specs {
				alias, pub, ok := strings.Cut(s, ":")
				if !ok {
					return fmt.Errorf("guardian must be alias:pubkey-hex, got %q", s)
				}
				inputs = append(inputs, recovery.GuardianInput{Alias: alias, PublicKey: pub})
			}

			secret, err := walletSecret()
			if err != nil {
				return err
			}
			defer memzero.Zero(secret)

			guardians, err := wireCtx.Recovery.InitializeRecovery(secret, threshold, inputs)
			if err != nil {
				return err
			}
			fmt.Printf("Backup split %d-of-%d.\n", threshold, len(guardians))
			for _, g := range guardians {
				fmt.Printf("%s  %s\n", g.ID, g.Alias)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "shares needed to recover")
	cmd.Flags().StringArrayVar(&specs, "guardian", nil, "guardian as alias:pubkey-hex (repeatable)")
	return cmd
}

func guardiansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List guardians",
		RunE: func(cmd *cobra.Command, args []string) error {
			guardians, err := wireCtx.Recovery.Guardians()
			if err != nil {
				return err
			}
			for _, g := range guardians {
				fmt.Printf("%s  %-16s added %s\n", g.ID, g.Alias,
					time.Unix(g.AddedAt, 0).Format(time.DateOnly))
			}
			return nil
		},
	}
}

func guardiansRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <guardian-id>",
		Short: "Remove a guardian and rotate the remaining shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := walletSecret()
			if err != nil {
				return err
			}
			defer memzero.Zero(secret)

			if err := wireCtx.Recovery.RemoveGuardian(secret, args[0]); err != nil {
				return err
			}
			fmt.Println("Guardian removed; remaining shares rotated.")
			return nil
		},
	}
}

func guardiansInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <guardian-id>",
		Short: "Create a 24-hour invite code for a guardian",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invite, err := wireCtx.Recovery.CreateInvite(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Invite code (expires %s):\n\n  %s\n",
				time.Unix(invite.ExpiresAt, 0).Format(time.RFC822), invite.Code)
			return nil
		},
	}
}

// walletSecret unlocks the vault and returns the seed phrase's entropy,
// the 32-byte-max value the backup protocol splits.
func walletSecret() ([]byte, error) {
	if err := unlockVault(); err != nil {
		return nil, err
	}
	defer wireCtx.Vault.Lock()

	mnemonic, err := wireCtx.Vault.Mnemonic()
	if err != nil {
		return nil, err
	}
	return bip39.EntropyFromMnemonic(mnemonic)
}

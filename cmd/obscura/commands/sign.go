package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
	"obscura/internal/services/keyring"
)

func signCmd() *cobra.Command {
	var chainID uint64

	cmd := &cobra.Command{
		Use:   "sign <address> <hash-hex>",
		Short: "Sign a 32-byte digest with an account key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlockVault(); err != nil {
				return err
			}
			defer wireCtx.Vault.Lock()

			hash, err := hex.DecodeString(args[1])
			if err != nil {
				return fmt.Errorf("malformed hash: %w", err)
			}

			mnemonic, err := wireCtx.Vault.Mnemonic()
			if err != nil {
				return err
			}
			hd, err := hdkey.New(mnemonic, "")
			if err != nil {
				return err
			}
			defer hd.Destroy()

			ring := keyring.New(hd)
			defer ring.Destroy()

			accounts, err := wireCtx.Vault.Accounts()
			if err != nil {
				return err
			}
			for _, a := range accounts {
				if a.Kind == domain.KeyKindDerived {
					if _, err := ring.AddDerived(int64(a.Index)); err != nil {
						return err
					}
				}
			}

			var sig domain.Signature
			if chainID != 0 {
				sig, err = ring.SignTransaction(domain.Address(args[0]), hash, chainID)
			} else {
				sig, err = ring.SignHash(domain.Address(args[0]), hash)
			}
			if err != nil {
				return err
			}
			fmt.Printf("r: %s\ns: %s\nv: %d\n",
				hex.EncodeToString(sig.R[:]), hex.EncodeToString(sig.S[:]), sig.V)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "fold an EIP-155 chain id into v")
	return cmd
}

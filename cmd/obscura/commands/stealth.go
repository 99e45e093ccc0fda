package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"obscura/internal/domain"
	"obscura/internal/protocol/stealth"
	"obscura/internal/util/memzero"
)

func stealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stealth",
		Short: "Generate and detect one-time receiving addresses",
	}
	cmd.AddCommand(stealthKeysCmd(), stealthSendCmd(), stealthScanCmd())
	return cmd
}

func stealthKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate stealth keys and print the meta-address",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := stealth.GenerateKeys()
			if err != nil {
				return err
			}
			defer keys.Destroy()

			fmt.Printf("meta-address:  %s\n", keys.MetaAddress())
			fmt.Printf("spending key:  %x\n", keys.SpendingPriv.Serialize())
			fmt.Printf("viewing key:   %x\n", keys.ViewingPriv.Serialize())
			fmt.Println("\nStore both private keys safely; they are not kept anywhere.")
			return nil
		},
	}
}

func stealthSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <meta-address>",
		Short: "Derive a one-time address for a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := stealth.ParseMetaAddress(args[0])
			if err != nil {
				return err
			}
			payment, err := stealth.GenerateAddress(meta)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(payment, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func stealthScanCmd() *cobra.Command {
	var viewHex, spendPubHex string

	cmd := &cobra.Command{
		Use:   "scan <payments-file>",
		Short: "Detect payments belonging to your stealth keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var payments []domain.StealthPayment
			if err := json.Unmarshal(raw, &payments); err != nil {
				return fmt.Errorf("malformed payments file: %w", err)
			}

			viewBytes, err := hex.DecodeString(viewHex)
			if err != nil || len(viewBytes) != 32 {
				return fmt.Errorf("viewing key must be 32 bytes of hex")
			}
			viewPriv, _ := btcec.PrivKeyFromBytes(viewBytes)
			memzero.Zero(viewBytes)
			defer viewPriv.Zero()

			spendBytes, err := hex.DecodeString(spendPubHex)
			if err != nil {
				return fmt.Errorf("malformed spending public key: %w", err)
			}
			spendPub, err := btcec.ParsePubKey(spendBytes)
			if err != nil {
				return fmt.Errorf("malformed spending public key: %w", err)
			}

			mine, err := stealth.Scan(payments, viewPriv, spendPub)
			if err != nil {
				return err
			}
			for _, p := range mine {
				fmt.Println(p.Address)
			}
			fmt.Printf("%d of %d payments are yours\n", len(mine), len(payments))
			return nil
		},
	}
	cmd.Flags().StringVar(&viewHex, "view-key", "", "viewing private key (hex)")
	cmd.Flags().StringVar(&spendPubHex, "spend-pub", "", "spending public key (compressed hex)")
	_ = cmd.MarkFlagRequired("view-key")
	_ = cmd.MarkFlagRequired("spend-pub")
	return cmd
}

package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

func recoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Run the guardian recovery protocol",
	}
	cmd.AddCommand(recoverRequestCmd(), recoverStatusCmd(),
		recoverSubmitCmd(), recoverFinishCmd(), recoverCancelCmd())
	return cmd
}

func recoverRequestCmd() *cobra.Command {
	var commitment string
	var threshold int
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Open a time-boxed recovery request",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := wireCtx.Recovery.CreateRequest(commitment, threshold, ttl)
			if err != nil {
				return err
			}
			fmt.Printf("Request %s open until %s.\n", req.ID,
				time.Unix(req.ExpiresAt, 0).Format(time.RFC822))
			return nil
		},
	}
	cmd.Flags().StringVar(&commitment, "commitment", "", "wallet commitment (hash, not address)")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "shares needed")
	cmd.Flags().DurationVar(&ttl, "ttl", 72*time.Hour, "request lifetime")
	_ = cmd.MarkFlagRequired("commitment")
	return cmd
}

func recoverStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <request-id>",
		Short: "Show a request's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := wireCtx.Recovery.Request(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("status: %s  shares: %d/%d\n", req.Status, len(req.Shares), req.Threshold)
			return nil
		},
	}
}

func recoverSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <request-id> <guardian-id> <wrap-file>",
		Short: "Record a guardian's re-wrapped share",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			var wrap domain.EncryptedWrap
			if err := json.Unmarshal(raw, &wrap); err != nil {
				return fmt.Errorf("malformed share wrap: %w", err)
			}
			req, err := wireCtx.Recovery.SubmitShare(args[0], args[1], wrap)
			if err != nil {
				return err
			}
			fmt.Printf("Accepted. status: %s  shares: %d/%d\n",
				req.Status, len(req.Shares), req.Threshold)
			return nil
		},
	}
}

func recoverFinishCmd() *cobra.Command {
	var privHex string

	cmd := &cobra.Command{
		Use:   "finish <request-id>",
		Short: "Reconstruct the seed phrase from submitted shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			privBytes, err := hex.DecodeString(privHex)
			if err != nil || len(privBytes) != 32 {
				return fmt.Errorf("requester key must be 32 bytes of hex")
			}
			priv, _ := btcec.PrivKeyFromBytes(privBytes)
			memzero.Zero(privBytes)
			defer priv.Zero()

			secret, err := wireCtx.Recovery.CompleteRecovery(args[0], priv)
			if err != nil {
				return err
			}
			defer memzero.Zero(secret)

			mnemonic, err := bip39.NewMnemonic(secret)
			if err != nil {
				return err
			}
			fmt.Println("Recovered seed phrase:")
			fmt.Println()
			fmt.Printf("  %s\n", mnemonic)
			return nil
		},
	}
	cmd.Flags().StringVar(&privHex, "key", "", "requester private key (hex)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func recoverCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <request-id>",
		Short: "Cancel a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wireCtx.Recovery.CancelRequest(args[0])
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/config"
)

// devTokenCmd mints HS256 tokens for servers running in hmac identity mode.
func devTokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Print a bearer token for local development (hmac identity mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Identity.Mode != config.IdentityModeHMAC {
				return errors.New("dev-token requires identity.mode = \"hmac\"")
			}
			tok, err := auth.SignHMAC([]byte(cfg.Identity.HMACSecret), cfg.Identity.HMACIssuer,
				uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)).String(), email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

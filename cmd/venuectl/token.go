package main

import (
	"fmt"
	"time"

	"github.com/ariefcatur/venue-booking/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		perms   []string
		ttl     time.Duration
	)
	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if e.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			ps := make([]auth.Permission, 0, len(perms))
			for _, p := range perms {
				ps = append(ps, auth.Permission(p))
			}
			tok, err := auth.CreateAccessToken([]byte(e.cfg.JWTSecret), subject, ps, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	c.Flags().StringVar(&subject, "subject", "", "token subject")
	c.Flags().StringSliceVar(&perms, "perm", []string{string(auth.PermBookingsRead), string(auth.PermBookingsCreate)}, "granted permission, repeatable")
	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("subject")
	return c
}

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contractdesk/internal/identity"
	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

type tokenOptions struct {
	UserID string
	Role   string
}

// newTokenCmd mints a bearer token signed with the configured key, for local
// development against a server sharing that key.
func newTokenCmd() *cobra.Command {
	var opts tokenOptions

	cmd := &cobra.Command{
		Use:   "token --role admin|user [--user <uuid>]",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return dErrors.New(dErrors.CodeForbidden, "token minting is disabled in production")
			}
			userID := domain.UserID(uuid.New())
			if opts.UserID != "" {
				if userID, err = domain.ParseUserID(opts.UserID); err != nil {
					return err
				}
			}
			principal := domain.Principal{UserID: userID, Role: domain.Role(opts.Role)}
			token, err := identity.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).IssueToken(principal, cfg.JWTTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id to embed; a random one when empty")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleUser), "admin or user")
	return cmd
}

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contractdesk/pkg/domain"
	"contractdesk/pkg/requestcontext"
)

func newContractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Administrative contract operations",
	}
	cmd.AddCommand(newPurgeCmd())
	return cmd
}

func newPurgeCmd() *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "purge <contract-id>",
		Short: "Permanently delete a contract with its audit log, comments and issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseContractID(args[0])
			if err != nil {
				return err
			}
			actor := domain.UserID(uuid.New())
			if operator != "" {
				if actor, err = domain.ParseUserID(operator); err != nil {
					return err
				}
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx = requestcontext.WithPrincipal(ctx, domain.Principal{UserID: actor, Role: domain.RoleAdmin})
			if err := a.contracts.Purge(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged contract %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "user id recorded as the purging admin")
	return cmd
}

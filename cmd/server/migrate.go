package main

import (
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"contractdesk/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply every pending migration", func(cmd *cobra.Command, p *goose.Provider) error {
			results, err := p.Up(cmd.Context())
			printResults(cmd, results)
			return err
		}),
		migrateSubcommand("down", "Roll back the latest migration", func(cmd *cobra.Command, p *goose.Provider) error {
			result, err := p.Down(cmd.Context())
			if result != nil {
				printResults(cmd, []*goose.MigrationResult{result})
			}
			return err
		}),
		migrateSubcommand("status", "Show applied and pending migrations", func(cmd *cobra.Command, p *goose.Provider) error {
			statuses, err := p.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range statuses {
				applied := "pending"
				if st.State == goose.StateApplied {
					applied = st.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-30s  %s\n", st.Source.Version, st.Source.Path, applied)
			}
			return nil
		}),
	)
	return cmd
}

func migrateSubcommand(use, short string, run func(*cobra.Command, *goose.Provider) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			p, err := postgres.NewMigrator(db)
			if err != nil {
				return err
			}
			return run(cmd, p)
		},
	}
}

func printResults(cmd *cobra.Command, results []*goose.MigrationResult) {
	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r.String())
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"sticker-pricer/internal/pricing"
	"sticker-pricer/internal/storage"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "import <file> [name]",
		Short: "Validate a pricing sheet and store it in Postgres",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			const operation = "pricer.import"

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", operation, err)
			}
			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}

			switch kind {
			case "base":
				_, err = pricing.ParseBasePricing(data, a.logger)
			case "discounts":
				_, err = pricing.ParseQuantityDiscounts(data, a.logger)
			default:
				err = fmt.Errorf("unknown sheet kind %q", kind)
			}
			if err != nil {
				return fmt.Errorf("%s: %s: %w", operation, args[0], err)
			}

			if !a.cfg.Database.Configured() {
				return fmt.Errorf("%s: DB_USER and DB_NAME must be set", operation)
			}
			pg, err := storage.NewPostgresStorage(cmd.Context(), a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			return pg.SaveSheet(cmd.Context(), name, data)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "base", "sheet kind: base or discounts")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the pricing_sheets schema",
	}

	short := map[string]string{
		storage.MigrateUp:     "Apply all pending migrations",
		storage.MigrateDown:   "Roll back the last migration",
		storage.MigrateStatus: "Print migration status",
	}
	for _, command := range storage.MigrateCommands {
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: short[command],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !a.cfg.Database.Configured() {
					return fmt.Errorf("DB_USER and DB_NAME must be set")
				}
				pg, err := storage.NewPostgresStorage(cmd.Context(), a.cfg.Database, a.logger)
				if err != nil {
					return err
				}
				defer pg.Close()
				return storage.Migrate(cmd.Context(), pg.DB(), command, a.logger)
			},
		})
	}
	return cmd
}

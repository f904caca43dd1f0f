package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"ms-busbooking/internal/config"
	"ms-busbooking/internal/database"
	"ms-busbooking/internal/database/migrations"
	"ms-busbooking/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	migrationsDir string
	seed          bool
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the bus booking database schema",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply schema migrations, and the demo history with --seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd.Context(), func(r *migrations.Runner) error {
			return r.RunMigrations()
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd.Context(), func(r *migrations.Runner) error {
			return r.MigrateDown()
		})
	},
}

var toCmd = &cobra.Command{
	Use:   "to VERSION",
	Short: "Migrate up or down to VERSION",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withRunner(cmd.Context(), func(r *migrations.Runner) error {
			return r.MigrateTo(uint(version))
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd.Context(), func(r *migrations.Runner) error {
			version, dirty, err := r.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func withRunner(ctx context.Context, fn func(r *migrations.Runner) error) error {
	log := logger.NewConsoleLogger(os.Stdout)
	cfg := config.Load()

	bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	dir := cfg.Database.MigrationsPath
	if migrationsDir != "" {
		dir = migrationsDir
	}
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: dir, SeedData: seed}, log)
	defer runner.Close()

	if err := fn(runner); err != nil {
		return err
	}
	log.Info("MIGRATION", "✅ Done.")
	return nil
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (default MIGRATIONS_PATH)")
	upCmd.Flags().BoolVar(&seed, "seed", false, "also load the demo booking history")
	rootCmd.AddCommand(upCmd, downCmd, toCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

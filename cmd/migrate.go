package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"cargas/config"
	_ "cargas/migration" // registers the Go migrations with goose

	_ "github.com/lib/pq"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migration"

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the postgres store",
		Long:  `This command migrates the postgres store schema by goose and prints the migration status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, _ := cmd.Flags().GetBool("up")
			down, _ := cmd.Flags().GetBool("down")
			if cmd.Flags().Changed("down") && !cmd.Flags().Changed("up") {
				up = false
			}
			if up && down {
				return cmd.Help()
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			connStr := cfg.Database.DSN
			log.Printf("Using connection string: %s", redactDSN(connStr))

			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("failed to set goose dialect: %w", err)
			}

			db, err := sql.Open("postgres", connStr)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			pingCtx, pingCancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer pingCancel()
			if err := db.PingContext(pingCtx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			log.Println("Successfully connected to the database.")

			ctx := cmd.Context()
			switch {
			case up:
				log.Println("Running 'up' migrations...")
				if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
					return fmt.Errorf("goose up failed: %w", err)
				}
			case down:
				log.Println("Rolling back the last migration...")
				if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
					return fmt.Errorf("goose down failed: %w", err)
				}
			}
			log.Println("Checking migration status...")
			if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
				return fmt.Errorf("goose status failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("up", "u", true, "up the version of db")
	cmd.Flags().BoolP("down", "d", false, "down the version of db")

	return cmd
}

// redactDSN hides the password of URL-style connection strings.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

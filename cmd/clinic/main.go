package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clinic/exams/internal/config"
	"github.com/clinic/exams/internal/platform/db"
	"github.com/clinic/exams/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clinic",
		Short:        "Clinic exam scheduling",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(dbCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(examsCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(resultsCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(registryCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				count, err := db.NewMigrator(a.gw.Pool(), migrations.FS).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				statuses, err := db.NewMigrator(a.gw.Pool(), migrations.FS).Status(ctx)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				tw := newTable(cmd.OutOrStdout(), "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					status, appliedAt := "pending", ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format(dateTimeLayout)
						}
					}
					tw.row(s.Version, s.Name, status, appliedAt)
				}
				return tw.flush()
			})
		},
	})
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the connection settings file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the connection settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, s, err := loadSettings()
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), path, s)
		},
	})

	set := &cobra.Command{
		Use:   "set",
		Short: "Rewrite the connection settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, s, err := loadSettings()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("host") {
				s.Host, _ = f.GetString("host")
			}
			if f.Changed("database") {
				s.Database, _ = f.GetString("database")
			}
			if f.Changed("user") {
				s.User, _ = f.GetString("user")
			}
			if f.Changed("password") {
				s.Password, _ = f.GetString("password")
			}
			if err := config.SaveSettings(path, s); err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), path, s)
		},
	}
	set.Flags().String("host", "", "Server host, optionally host:port")
	set.Flags().String("database", "", "Database name")
	set.Flags().String("user", "", "User name")
	set.Flags().String("password", "", "Password")
	cmd.AddCommand(set)
	return cmd
}

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Check that the configured database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := loadSettings()
			if err != nil {
				return err
			}
			if err := db.TestConnection(cmd.Context(), s.DSN()); err != nil {
				return fmt.Errorf("connection to %s/%s failed: %w", s.Host, s.Database, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection to %s/%s OK.\n", s.Host, s.Database)
			return nil
		},
	})
	return cmd
}

// loadSettings resolves the settings file from the app config and reads
// it, writing the defaults when it is missing.
func loadSettings() (string, config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", config.Settings{}, err
	}
	s, err := config.LoadSettings(cfg.DBConfigFile)
	return cfg.DBConfigFile, s, err
}

func printSettings(w io.Writer, path string, s config.Settings) error {
	password := ""
	if s.Password != "" {
		password = "********"
	}
	tw := newTable(w, "FILE", "HOST", "DATABASE", "USER", "PASSWORD")
	tw.row(path, s.Host, s.Database, s.User, password)
	return tw.flush()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/masspay/internal/adapter/dispatch"
	"github.com/iho/masspay/internal/adapter/http/dto"
	postgresRepo "github.com/iho/masspay/internal/adapter/repository/postgres"
	"github.com/iho/masspay/internal/app"
	"github.com/iho/masspay/internal/infrastructure/config"
	"github.com/iho/masspay/internal/infrastructure/logger"
	"github.com/iho/masspay/internal/infrastructure/metrics"
	"github.com/iho/masspay/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "masspay-cli",
		Short:         "MassPay CLI tool",
		Long:          `A command line interface for operating the mass payment service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the MassPay API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(newConsistencyCmd(), newMigrateCmd(), newSeedCmd(), newProcessCmd(), newSweepCmd())
	return rootCmd
}

func newConsistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency <mass-payment-id>",
		Short: "Check a mass payment's counters through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			return checkConsistency(client, baseURL, args[0], cmd.OutOrStdout())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(mg *postgres.Migrator) error { return mg.Down(steps) })
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *postgres.Migrator) error { return mg.Up() })
			},
		},
		downCmd,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *postgres.Migrator) error {
					version, dirty, err := mg.Version()
					if err != nil {
						return err
					}
					printJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
					return nil
				})
			},
		},
	)
	return migrateCmd
}

func withMigrator(fn func(*postgres.Migrator) error) error {
	cfg, logg, err := loadConfig()
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logg)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo bank providers, parties and accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				report, err := seed(ctx, e.repos)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

func newProcessCmd() *cobra.Command {
	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Run processing inline, bypassing the server's queue",
	}

	processCmd.AddCommand(
		&cobra.Command{
			Use:   "batch <mass-payment-id>",
			Short: "Process the pending items of a mass payment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
					result, err := e.procs.Batches.Process(ctx, args[0])
					if err != nil {
						return err
					}
					printJSON(cmd.OutOrStdout(), result)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "group <group-id>",
			Short: "Validate the pending recipients of a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
					result, err := e.procs.Groups.Process(ctx, args[0])
					if err != nil {
						return err
					}
					printJSON(cmd.OutOrStdout(), result)
					return nil
				})
			},
		},
	)
	return processCmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail stuck items and re-run idle mass payments and groups once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				report, err := e.useCases.Reconciliation.Sweep(ctx)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

// env is the database-backed object graph used by the offline commands.
type env struct {
	repos    *app.Repositories
	procs    *app.Processors
	useCases *app.UseCases
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load configuration: %w", err)
	}
	logg := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  "console",
		Service: "masspay-cli",
		Output:  os.Stderr,
	})
	return cfg, logg, nil
}

func withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        4,
		ConnectTimeout:  cfg.DatabaseTimeout,
		ApplicationName: "masspay-cli",
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	return fn(ctx, newEnv(cfg, pool, logg))
}

// newEnv wires processors behind a SyncDispatcher so re-dispatched work finishes before
// the command returns. Locks always use PostgreSQL here.
func newEnv(cfg *config.Config, pool *pgxpool.Pool, logg zerolog.Logger) *env {
	repos := app.NewRepositories(pool, cfg.DatabaseLockTimeout)
	locker := app.NewRunLocker(cfg, pool, nil, logg)

	procs := app.NewProcessors(app.ProcessorConfig{
		Repos:            repos,
		Gateway:          app.NewGateway(cfg, logg, metrics.New(prometheus.NewRegistry())),
		Locker:           locker,
		Retrier:          postgresRepo.NewRetrier(logg),
		Logger:           logg,
		GroupConcurrency: cfg.GroupValidationConcurrency,
	})

	useCases := app.NewUseCases(app.UseCaseConfig{
		Repos:             repos,
		Resolver:          procs.Resolver,
		Dispatcher:        dispatch.NewSyncDispatcher(procs.Batches, procs.Groups, logg),
		Locker:            locker,
		Logger:            logg,
		FeePerTransaction: cfg.FeePerTransaction,
		SweepStuckAfter:   cfg.SweepStuckAfter,
		SweepBatchSize:    cfg.SweepBatchSize,
	})

	return &env{repos: repos, procs: procs, useCases: useCases}
}

func checkConsistency(client *http.Client, base, id string, out io.Writer) error {
	resp, err := client.Get(base + "/api/v1/mass-payments/" + url.PathEscape(id) + "/consistency")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("consistency check FAILED (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result dto.ConsistencyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.Consistent {
		fmt.Fprintf(out, "Consistency check FAILED for %s\n", result.MassPaymentID)
		for _, p := range result.Problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("mass payment %s is inconsistent", result.MassPaymentID)
	}

	fmt.Fprintf(out, "Consistency check PASSED\n")
	fmt.Fprintf(out, "Status: %s\n", result.Status)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printJSON(out io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "%+v\n", v)
		return
	}
	fmt.Fprintln(out, string(data))
}

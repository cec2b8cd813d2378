package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/api"
	"github.com/vipogroup/vipo-api/internal/config"
	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/notify"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
	"github.com/vipogroup/vipo-api/internal/worker"
)

const actor = "vipoctl"

var (
	verbose bool
	asJSON  bool
	keep    int
)

// env is the wiring shared by every subcommand.
type env struct {
	cfg      *config.Config
	db       *loaders.PostgresClient
	pool     *worker.Pool
	services *api.Services
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := utils.InitLogger(level, cfg.Environment); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	db, err := loaders.NewPostgresClient(cfg.DatabaseURL, 4, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(1, 16)
	pool.Start()
	var sender notify.Sender
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		if tg, err := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramAdminChatID); err == nil {
			sender = tg
		}
	}
	notifier := notify.NewNotifier(sender, pool)
	tokens := shared.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)

	return &env{
		cfg:      cfg,
		db:       db,
		pool:     pool,
		services: api.NewServices(cfg, db, nil, pool, notifier, tokens),
	}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.pool.Stop(ctx)
	e.db.Close()
	_ = utils.Zlog.Sync()
}

// withEnv wraps a subcommand body with setup, teardown and signal handling.
func withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()
		return run(ctx, e, args)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:           "vipoctl",
	Short:         "Operations tool for the VIPO API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		if err := e.db.Migrate(ctx); err != nil {
			return err
		}
		utils.Zlog.Info("Migrations applied")
		return nil
	}),
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list, restore and prune database backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Dump every table into a new archive",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		res, err := e.services.Backups.Create(ctx, actor)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}
		fmt.Printf("created %s (%d rows, %d tables) in %s\n", res.Name, res.TotalRows, len(res.Tables), res.Duration)
		if res.CommandErr != "" {
			fmt.Printf("post-backup command failed: %s\n", res.CommandErr)
		}
		return nil
	}),
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest archives",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		items, err := e.services.Backups.List(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(items)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDATE\tSIZE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", it.Name, it.Date, it.SizeFormatted)
		}
		return w.Flush()
	}),
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Replace all tables with the content of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		res, err := e.services.Backups.Restore(ctx, actor, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}
		fmt.Printf("restored %s (%d rows)\n", res.Name, res.TotalRows)
		return nil
	}),
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete all but the newest archives",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		removed, err := e.services.Backups.Cleanup(ctx, actor, keep)
		if err != nil {
			return err
		}
		for _, name := range removed {
			fmt.Println("removed", name)
		}
		return nil
	}),
}

var commissionsCmd = &cobra.Command{
	Use:   "commissions",
	Short: "Commission maintenance",
}

var commissionsReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Move commissions whose hold period ended to the agents' balances",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		res, err := e.services.Commissions.Release(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}
		fmt.Printf("released %d commissions to %d agents (%.2f)\n", res.Released, res.Agents, res.Amount)
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
	backupCleanupCmd.Flags().IntVar(&keep, "keep", 0, "archives to keep (default BACKUP_KEEP)")

	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupCleanupCmd)
	commissionsCmd.AddCommand(commissionsReleaseCmd)
	rootCmd.AddCommand(migrateCmd, backupCmd, commissionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.Zlog.Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

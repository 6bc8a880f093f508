// Package cli implements the debtbook command line. Commands operate on
// the local SQLite database directly, acting as the user named by --user.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/debtbook/internal/config"
	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/storage/sqlite"
	"github.com/mmynk/debtbook/pkg/logging"
)

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	dbPath     string
	username   string
	accountID  int64

	cfg    *config.Config
	store  *sqlite.SQLiteStore
	ledger *ledger.Ledger
}

// NewRootCommand builds the debtbook command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "debtbook",
		Short: "Track who owes whom",
		Long: `debtbook keeps a personal ledger of money lent and borrowed.
Debts are recorded against contacts, paid down in installments and
settled. Account totals are kept in step with every change.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a TOML config file")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	flags.StringVarP(&a.username, "user", "u", "", "Username to act as (default: $DEBTBOOK_USER)")
	flags.Int64Var(&a.accountID, "account", 0, "Account ID (default: the user's default account)")

	root.AddCommand(
		newMigrateCmd(a),
		newUserCmd(a),
		newContactCmd(a),
		newDebtCmd(a),
		newAccountCmd(a),
		newIncomeCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(level)
	a.cfg = cfg
	return nil
}

// open connects to the database on first use.
func (a *app) open() (*ledger.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.ledger = ledger.New(store, ledger.WithDefaultCurrency(a.cfg.Ledger.DefaultCurrency))
	return a.ledger, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.ledger = nil, nil
	return err
}

// session opens the ledger and resolves --user to a session.
func (a *app) session(ctx context.Context) (*ledger.Ledger, ledger.Session, error) {
	l, err := a.open()
	if err != nil {
		return nil, ledger.Session{}, err
	}
	if a.username == "" {
		// Read late so a value from .env is seen.
		a.username = os.Getenv("DEBTBOOK_USER")
	}
	if a.username == "" {
		return nil, ledger.Session{}, fmt.Errorf("no user selected: pass --user or set DEBTBOOK_USER")
	}
	user, err := l.GetUserByUsername(ctx, a.username)
	if err != nil {
		return nil, ledger.Session{}, fmt.Errorf("user %q: %w", a.username, err)
	}
	return l, ledger.Session{UserID: user.ID, AccountID: a.accountID}, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := sqlite.DSN(a.cfg.Database.Path)
			if err := os.MkdirAll(filepath.Dir(a.cfg.Database.Path), 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
			if err := sqlite.Migrate(dsn); err != nil {
				return err
			}
			version, dirty, err := sqlite.SchemaVersion(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (dirty: %t) in %s\n", version, dirty, a.cfg.Database.Path)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ledger.ErrInvalidArgument, s)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD and returns Unix seconds at UTC midnight.
func parseDate(s string) (int64, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ledger.ErrInvalidArgument, s)
	}
	return t.Unix(), nil
}

func formatDate(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format(time.DateOnly)
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nickyhof/CommitORM/db"
	"github.com/nickyhof/CommitORM/internal/config"
	"github.com/nickyhof/CommitORM/internal/keychain"
	"github.com/nickyhof/CommitORM/internal/logging"
	"github.com/nickyhof/CommitORM/journal"
	"github.com/nickyhof/CommitORM/remote"
)

// app is the state shared by every command of one process. The shell runs
// many commands against the same session.
type app struct {
	configPath string
	overrides  config.Config
	cfg        config.Config
	ready      bool

	journal *journal.Journal
	session *db.Session
	secrets *keychain.Manager
}

func newApp() *app {
	return &app{}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "commitorm",
		Short:         "Declare tables, insert and query records, journal every commit",
		Long:          `commitorm drives a CommitORM session: tables are declared in a JSON schema file, records are inserted and queried through the ORM, and every commit is recorded in a git-backed statement journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to the JSON config file")
	flags.StringVar(&a.overrides.Locator, "locator", "", "Database locator (memory if empty)")
	flags.StringVar(&a.overrides.Driver, "driver", "", "database/sql driver: duckdb or pgx")
	flags.StringVar(&a.overrides.JournalDir, "journal", "", "Journal directory (memory if empty)")
	flags.StringVar(&a.overrides.Identity.Name, "name", "", "Author name for journal entries")
	flags.StringVar(&a.overrides.Identity.Email, "email", "", "Author email for journal entries")
	flags.StringVar(&a.overrides.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newApplyCmd(a),
		newInsertCmd(a),
		newSelectCmd(a),
		newDropCmd(a),
		newCommitCmd(a),
		newRollbackCmd(a),
		newPendingCmd(a),
		newLogCmd(a),
		newReplayCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newSecretCmd(a),
		newRemoteCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newSnapshotCmd(a),
		newShellCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration once per process.
func (a *app) init() error {
	if a.ready {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, a.overrides)
	a.cfg = cfg

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}

	if cfg.JournalDir == "" {
		a.journal, err = journal.NewMemoryJournal()
	} else {
		a.journal, err = journal.NewFileJournal(cfg.JournalDir)
	}
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	a.session = db.NewSession(cfg.Locator, db.Options{
		Driver:   cfg.Driver,
		Identity: cfg.Identity,
		Journal:  a.journal,
	})

	if m, err := keychain.GetManager(); err == nil {
		a.secrets = m
	} else {
		logging.GetLogger().Debug("keychain unavailable", "error", err)
	}

	a.ready = true
	return nil
}

func applyOverrides(cfg *config.Config, o config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Locator, o.Locator)
	set(&cfg.Driver, o.Driver)
	set(&cfg.JournalDir, o.JournalDir)
	set(&cfg.Identity.Name, o.Identity.Name)
	set(&cfg.Identity.Email, o.Identity.Email)
	set(&cfg.LogLevel, o.LogLevel)
}

// connect opens the session on first use.
func (a *app) connect(ctx context.Context) (*db.Session, error) {
	if !a.session.Connected() {
		if err := a.session.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return a.session, nil
}

// close commits and releases the session if it was opened.
func (a *app) close() error {
	var err error
	if a.session != nil && a.session.Connected() {
		err = a.session.Close()
	}
	return errors.Join(err, logging.Close())
}

func (a *app) s3Config() *remote.S3Config {
	secret, err := keychain.Secret(a.secrets, "COMMITORM_S3_SECRET_KEY", keychain.KeyS3SecretKey)
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		pterm.Warning.Printfln("S3 secret key unavailable: %v", err)
	}
	return &remote.S3Config{
		AccessKey: a.cfg.S3.AccessKey,
		SecretKey: secret,
		Region:    a.cfg.S3.Region,
		Endpoint:  a.cfg.S3.Endpoint,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Printfln("commitorm %s", Version)
		},
	}
}

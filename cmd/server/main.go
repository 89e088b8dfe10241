package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickyhof/CommitORM/db"
	"github.com/nickyhof/CommitORM/internal/config"
	"github.com/nickyhof/CommitORM/internal/keychain"
	"github.com/nickyhof/CommitORM/internal/logging"
	"github.com/nickyhof/CommitORM/journal"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to the JSON config file")
	port := flag.Int("port", 0, "TCP port to listen on (overrides config)")
	locator := flag.String("locator", "", "Database locator (overrides config, memory if empty)")
	journalDir := flag.String("journalDir", "", "Directory of the statement journal (overrides config)")
	auth := flag.Bool("auth", false, "Require JWT authentication")
	certFile := flag.String("tlsCert", "", "TLS certificate file")
	keyFile := flag.String("tlsKey", "", "TLS key file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CommitORM Server v%s\n", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *locator != "" {
		cfg.Locator = *locator
	}
	if *journalDir != "" {
		cfg.JournalDir = *journalDir
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()
	log := logging.GetLogger()

	if err := run(cfg, *auth, *certFile, *keyFile); err != nil {
		log.Error("server failed", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, auth bool, certFile, keyFile string) error {
	log := logging.GetLogger()

	var j *journal.Journal
	var err error
	if cfg.JournalDir == "" {
		log.Info("using memory journal")
		j, err = journal.NewMemoryJournal()
	} else {
		log.Info("using file journal", "dir", cfg.JournalDir)
		j, err = journal.NewFileJournal(cfg.JournalDir)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	session := db.NewSession(cfg.Locator, db.Options{
		Driver:   cfg.Driver,
		Identity: cfg.Identity,
		Journal:  j,
	})
	if err := session.Connect(context.Background()); err != nil {
		return err
	}
	defer session.Close()

	var server *Server
	if auth {
		secret, err := keychain.Secret(keychainManager(), "COMMITORM_JWT_SECRET", keychain.KeyJWTSecret)
		if err != nil {
			return fmt.Errorf("JWT secret unavailable: %w", err)
		}
		server = NewServerWithAuth(session, &AuthConfig{
			Enabled:   true,
			JWTSecret: secret,
			Issuer:    cfg.Server.JWTIssuer,
			Audience:  cfg.Server.JWTAudience,
		})
	} else {
		server = NewServer(session, cfg.Identity)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if certFile != "" && keyFile != "" {
		err = server.StartTLS(addr, certFile, keyFile)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   CommitORM Server v%-17s ║\n", Version)
	fmt.Println("║   Journaled ORM session over TCP      ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d\n", cfg.Server.Port)
	fmt.Println("Send JSON requests (one per line), 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	server.Stop()
	log.Info("server stopped")
	return nil
}

// keychainManager returns nil when no keyring is available, leaving the
// environment as the only secret source.
func keychainManager() *keychain.Manager {
	m, err := keychain.GetManager()
	if err != nil {
		logging.GetLogger().Debug("keychain unavailable", "error", err)
		return nil
	}
	return m
}

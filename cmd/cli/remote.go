package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nickyhof/CommitORM/internal/keychain"
	"github.com/nickyhof/CommitORM/remote"
)

var errNoDatabaseFile = errors.New("backup and restore need a file locator (--locator)")

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "backup <destination>",
		Short:   "Copy the database file to a local path or s3:// object",
		Example: `  commitorm --locator app.db backup s3://backups/app.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Locator == "" {
				return errNoDatabaseFile
			}

			// Closing commits and flushes the engine's write-ahead log into the file.
			if a.session.Connected() {
				if err := a.session.Close(); err != nil {
					return err
				}
			}

			n, err := remote.Copy(cmd.Context(), a.cfg.Locator, args[0], a.s3Config())
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Backed up %s to %s (%d bytes)", a.cfg.Locator, args[0], n)
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "restore <source>",
		Short:   "Replace the database file from a path, s3:// object or http(s) URL",
		Example: `  commitorm --locator app.db restore s3://backups/app.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Locator == "" {
				return errNoDatabaseFile
			}
			if a.session.Connected() {
				if err := a.session.UnsafeClose(); err != nil {
					return err
				}
			}

			n, err := remote.Copy(cmd.Context(), args[0], a.cfg.Locator, a.s3Config())
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Restored %s from %s (%d bytes)", a.cfg.Locator, args[0], n)
			return nil
		},
	}
}

var secretKeys = map[string]string{
	"s3":  keychain.KeyS3SecretKey,
	"jwt": keychain.KeyJWTSecret,
	"git": keychain.KeyGitToken,
}

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store secrets in the OS keychain",
	}

	resolve := func(name string) (string, error) {
		key, ok := secretKeys[name]
		if !ok {
			return "", fmt.Errorf("unknown secret %q: expected s3, jwt or git", name)
		}
		if a.secrets == nil {
			return "", errors.New("secure storage is not available on this system")
		}
		return key, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <s3|jwt|git> <value>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.secrets.Set(key, args[1]); err != nil {
				return err
			}
			pterm.Success.Printfln("Stored %s secret", args[0])
			return nil
		},
	}, &cobra.Command{
		Use:   "delete <s3|jwt|git>",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.secrets.Delete(key); err != nil {
				return err
			}
			pterm.Success.Printfln("Removed %s secret", args[0])
			return nil
		},
	})
	return cmd
}

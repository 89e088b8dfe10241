package main

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nickyhof/CommitORM/internal/keychain"
	"github.com/nickyhof/CommitORM/journal"
)

type authFlags struct {
	token  string
	sshKey string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.token, "token", "", "Access token (defaults to the stored git secret)")
	cmd.Flags().StringVar(&f.sshKey, "ssh-key", "", "Path to an SSH private key")
}

// auth picks SSH when a key is given, then an explicit or stored token.
func (f *authFlags) auth(a *app) *journal.RemoteAuth {
	if f.sshKey != "" {
		return &journal.RemoteAuth{Type: journal.AuthTypeSSH, KeyPath: f.sshKey}
	}

	token := f.token
	if token == "" {
		stored, err := keychain.Secret(a.secrets, "COMMITORM_GIT_TOKEN", keychain.KeyGitToken)
		if err != nil && !errors.Is(err, keychain.ErrNotFound) {
			pterm.Warning.Printfln("git token unavailable: %v", err)
		}
		token = stored
	}
	if token == "" {
		return nil
	}
	return &journal.RemoteAuth{Type: journal.AuthTypeToken, Token: token}
}

func remoteName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return journal.DefaultRemote
}

func newRemoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the git remotes of the journal",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.journal.AddRemote(args[0], args[1]); err != nil {
				return err
			}
			pterm.Success.Printfln("Added remote %s", args[0])
			return nil
		},
	}, &cobra.Command{
		Use:   "list",
		Short: "List remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remotes, err := a.journal.Remotes()
			if err != nil {
				return err
			}
			if len(remotes) == 0 {
				pterm.Info.Println("No remotes configured")
				return nil
			}
			for _, r := range remotes {
				for _, url := range r.URLs {
					pterm.Printfln("%s\t%s", r.Name, url)
				}
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.journal.RemoveRemote(args[0]); err != nil {
				return err
			}
			pterm.Success.Printfln("Removed remote %s", args[0])
			return nil
		},
	})
	return cmd
}

func newPushCmd(a *app) *cobra.Command {
	var flags authFlags

	cmd := &cobra.Command{
		Use:   "push [remote]",
		Short: "Publish journal entries to a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := remoteName(args)
			if err := a.journal.Push(name, flags.auth(a)); err != nil {
				return err
			}
			pterm.Success.Printfln("Pushed journal to %s", name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	var flags authFlags

	cmd := &cobra.Command{
		Use:   "pull [remote]",
		Short: "Fast-forward the journal from a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := remoteName(args)
			if err := a.journal.Pull(name, flags.auth(a)); err != nil {
				return err
			}
			pterm.Success.Printfln("Journal is at %s", shortID(a.journal.Latest().Id))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "snapshot [name] [entry]",
		Short: "Name a journal entry, or list named entries",
		Example: `  commitorm snapshot release-1
  commitorm snapshot --delete release-1`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				snapshots, err := a.journal.Snapshots()
				if err != nil {
					return err
				}
				for _, s := range snapshots {
					pterm.Printfln("%s\t%s", s.Name, shortID(s.Id))
				}
				return nil
			}

			if remove {
				if err := a.journal.DeleteSnapshot(args[0]); err != nil {
					return err
				}
				pterm.Success.Printfln("Deleted snapshot %s", args[0])
				return nil
			}

			entry := ""
			if len(args) == 2 {
				entry = args[1]
			}
			if err := a.journal.Snapshot(args[0], entry); err != nil {
				return err
			}
			pterm.Success.Printfln("Created snapshot %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the named snapshot")
	return cmd
}

package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"
)

const DefaultRemote = "origin"

// ErrDiverged is returned by Pull when local and remote history both
// carry entries the other side lacks.
var ErrDiverged = errors.New("journal history has diverged from remote")

type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeBasic AuthType = "basic"
)

// RemoteAuth holds credentials for push, pull and fetch.
type RemoteAuth struct {
	Type       AuthType
	Token      string
	KeyPath    string
	Passphrase string
	Username   string
	Password   string
}

// Remote is a configured Git remote of the journal.
type Remote struct {
	Name string
	URLs []string
}

func (auth *RemoteAuth) authMethod() (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case AuthTypeNone, "":
		return nil, nil
	case AuthTypeToken:
		return &http.BasicAuth{Username: "git", Password: auth.Token}, nil
	case AuthTypeSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			home, _ := os.UserHomeDir()
			keyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", keyPath, auth.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key %s: %w", keyPath, err)
		}
		return keys, nil
	case AuthTypeBasic:
		return &http.BasicAuth{Username: auth.Username, Password: auth.Password}, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", auth.Type)
	}
}

func (j *Journal) AddRemote(name, url string) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}

	_, err := j.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote '%s': %w", name, err)
	}
	return nil
}

// Remotes lists the configured remotes.
func (j *Journal) Remotes() ([]Remote, error) {
	if err := j.ensureInitialized(); err != nil {
		return nil, err
	}

	remotes, err := j.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}

	result := make([]Remote, len(remotes))
	for i, r := range remotes {
		cfg := r.Config()
		result[i] = Remote{Name: cfg.Name, URLs: cfg.URLs}
	}
	return result, nil
}

func (j *Journal) RemoveRemote(name string) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}

	if err := j.repo.DeleteRemote(name); err != nil {
		return fmt.Errorf("failed to remove remote '%s': %w", name, err)
	}
	return nil
}

// branch is the branch Record advances.
func (j *Journal) branch() plumbing.ReferenceName {
	if headRef, err := j.repo.Head(); err == nil && headRef.Name().IsBranch() {
		return headRef.Name()
	}
	return plumbing.Master
}

// Push publishes the journal branch to a remote. An empty name means origin.
func (j *Journal) Push(remoteName string, auth *RemoteAuth) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}
	if remoteName == "" {
		remoteName = DefaultRemote
	}

	method, err := auth.authMethod()
	if err != nil {
		return fmt.Errorf("failed to configure auth: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	branch := j.branch()
	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", branch, branch))

	err = j.repo.Push(&git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       method,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push to '%s': %w", remoteName, err)
	}
	return nil
}

// Fetch downloads remote entries into refs/remotes/<remote>/ without
// moving the local branch.
func (j *Journal) Fetch(remoteName string, auth *RemoteAuth) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.fetch(remoteName, auth)
	return err
}

func (j *Journal) fetch(remoteName string, auth *RemoteAuth) (plumbing.ReferenceName, error) {
	if remoteName == "" {
		remoteName = DefaultRemote
	}

	method, err := auth.authMethod()
	if err != nil {
		return "", fmt.Errorf("failed to configure auth: %w", err)
	}

	branch := j.branch()
	tracking := plumbing.NewRemoteReferenceName(remoteName, branch.Short())
	refSpec := config.RefSpec(fmt.Sprintf("+%s:%s", branch, tracking))

	err = j.repo.Fetch(&git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       method,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to fetch from '%s': %w", remoteName, err)
	}
	return tracking, nil
}

// Pull fetches the remote branch and fast-forwards the journal to it.
// The worktree is never touched, so only fast-forwards are accepted.
func (j *Journal) Pull(remoteName string, auth *RemoteAuth) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	tracking, err := j.fetch(remoteName, auth)
	if err != nil {
		return err
	}

	remoteRef, err := j.repo.Reference(tracking, true)
	if err != nil {
		return fmt.Errorf("remote branch %s not found: %w", tracking.Short(), err)
	}

	branch := j.branch()
	localRef, err := j.repo.Reference(branch, true)
	if err == nil {
		if localRef.Hash() == remoteRef.Hash() {
			return nil
		}

		local, err := j.repo.CommitObject(localRef.Hash())
		if err != nil {
			return err
		}
		remote, err := j.repo.CommitObject(remoteRef.Hash())
		if err != nil {
			return err
		}

		if ahead, err := remote.IsAncestor(local); err != nil {
			return err
		} else if ahead {
			return nil
		}
		if behind, err := local.IsAncestor(remote); err != nil {
			return err
		} else if !behind {
			return ErrDiverged
		}
	}

	return j.repo.Storer.SetReference(plumbing.NewHashReference(branch, remoteRef.Hash()))
}

package main

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"

	"github.com/nickyhof/CommitORM/expr"
	"github.com/nickyhof/CommitORM/journal"
)

func TestCLIPushPull(t *testing.T) {
	bare := t.TempDir()
	storer := filesystem.NewStorage(osfs.New(bare), cache.NewObjectLRUDefault())
	if _, err := git.Init(storer); err != nil {
		t.Fatalf("Failed to init bare repo: %v", err)
	}

	source, schemaPath := setupTestApp(t)
	mustRun(t, source, "apply", schemaPath)
	mustRun(t, source, "insert", "users", "id=1", "name=Alice")
	mustRun(t, source, "commit")
	mustRun(t, source, "remote", "add", "origin", bare)
	mustRun(t, source, "remote", "list")
	mustRun(t, source, "push")

	target, _ := setupTestApp(t)
	mustRun(t, target, "remote", "add", "backup", bare)
	mustRun(t, target, "pull", "backup")

	if got, want := target.journal.Latest().Id, source.journal.Latest().Id; got != want {
		t.Errorf("Expected pulled entry %s, got %s", want, got)
	}

	mustRun(t, target, "remote", "remove", "backup")
	if err := run(t, target, "pull", "backup"); err == nil {
		t.Error("Expected pull from removed remote to fail")
	}
}

func TestCLIReplayPulledJournal(t *testing.T) {
	bare := t.TempDir()
	storer := filesystem.NewStorage(osfs.New(bare), cache.NewObjectLRUDefault())
	if _, err := git.Init(storer); err != nil {
		t.Fatalf("Failed to init bare repo: %v", err)
	}

	source, schemaPath := setupTestApp(t)
	mustRun(t, source, "apply", schemaPath)
	mustRun(t, source, "insert", "users", "id=1", "name=O'Brien", "age=41")
	mustRun(t, source, "insert", "users", "id=2", "name=Bob", "age=NULL")
	mustRun(t, source, "commit")
	mustRun(t, source, "snapshot", "v1")
	mustRun(t, source, "insert", "users", "id=3", "name=Carol")
	mustRun(t, source, "commit")
	mustRun(t, source, "remote", "add", "origin", bare)
	mustRun(t, source, "push")

	target, _ := setupTestApp(t)
	mustRun(t, target, "remote", "add", "origin", bare)
	mustRun(t, target, "pull")
	before := target.journal.Latest().Id

	mustRun(t, target, "replay", before)

	ctx := context.Background()
	result, err := target.session.Select(ctx, "users", expr.Col("age").IsNull(), "id", "name")
	if err != nil {
		t.Fatalf("Failed to select replayed rows: %v", err)
	}
	if result.RecordsRead != 2 {
		t.Errorf("Expected Bob and Carol with NULL age, got %v", result.Data)
	}

	result, err = target.session.Select(ctx, "users", expr.Col("name").Eq("'O''Brien'"), "age")
	if err != nil {
		t.Fatalf("Failed to select replayed rows: %v", err)
	}
	if result.RecordsRead != 1 || result.Data[0][0] != "41" {
		t.Errorf("Expected O'Brien aged 41, got %v", result.Data)
	}

	if got := target.journal.Latest().Id; got != before {
		t.Errorf("Expected replay to leave the journal at %s, got %s", before, got)
	}
}

func TestCLIReplayUnknownEntry(t *testing.T) {
	a, _ := setupTestApp(t)
	if err := run(t, a, "replay", "no-such-snapshot"); err == nil {
		t.Error("Expected replay of an unknown entry to fail")
	}
}

func TestCLISnapshot(t *testing.T) {
	a, schemaPath := setupTestApp(t)

	mustRun(t, a, "apply", schemaPath)
	mustRun(t, a, "commit")
	mustRun(t, a, "snapshot", "v1")
	mustRun(t, a, "snapshot")
	mustRun(t, a, "log", "v1")

	snapshots, err := a.journal.Snapshots()
	if err != nil {
		t.Fatalf("Failed to list snapshots: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].Id != a.journal.Latest().Id {
		t.Errorf("Unexpected snapshots %v", snapshots)
	}

	mustRun(t, a, "snapshot", "--delete", "v1")
	if err := run(t, a, "log", "v1"); err == nil {
		t.Error("Expected deleted snapshot to be unresolvable")
	}
}

func TestAuthFlags(t *testing.T) {
	a, _ := setupTestApp(t)
	t.Setenv("COMMITORM_GIT_TOKEN", "")

	tests := []struct {
		name  string
		flags authFlags
		want  journal.AuthType
	}{
		{"ssh key wins", authFlags{token: "t", sshKey: "/tmp/key"}, journal.AuthTypeSSH},
		{"token", authFlags{token: "t"}, journal.AuthTypeToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := tt.flags.auth(a)
			if auth == nil || auth.Type != tt.want {
				t.Errorf("auth() = %v, want type %s", auth, tt.want)
			}
		})
	}

	t.Setenv("COMMITORM_GIT_TOKEN", "from-env")
	empty := authFlags{}
	if auth := empty.auth(a); auth == nil || auth.Token != "from-env" {
		t.Errorf("Expected token from environment, got %v", auth)
	}
}

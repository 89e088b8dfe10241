package journal

import (
	"errors"
	"os"
	"sync"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

const statementsFile = "statements.sql"

var (
	ErrNotInitialized = errors.New("journal not initialized")
	ErrNoStatements   = errors.New("no statements to record")
)

// Journal is a Git repository holding statements.sql.
type Journal struct {
	repo *git.Repository
	mu   sync.Mutex
}

func (j *Journal) IsInitialized() bool {
	return j != nil && j.repo != nil
}

func (j *Journal) ensureInitialized() error {
	if !j.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

func NewMemoryJournal() (*Journal, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, err
	}

	return &Journal{repo: repo}, nil
}

// NewFileJournal opens the journal repository in baseDir, creating it when
// it does not exist yet.
func NewFileJournal(baseDir string) (*Journal, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Journal{repo: repo}, nil
}

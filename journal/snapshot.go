package journal

import (
	"fmt"

	"github.com/go-git/go-git/v6/plumbing"
)

// Snapshot is a named entry.
type Snapshot struct {
	Name string
	Id   string
}

// Snapshot tags an entry so it can later be addressed by name. An empty
// id tags the latest entry.
func (j *Journal) Snapshot(name, id string) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}

	if id == "" {
		headRef, err := j.repo.Head()
		if err != nil {
			return fmt.Errorf("nothing recorded to snapshot: %w", err)
		}
		id = headRef.Hash().String()
	}

	id, err := j.Resolve(id)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.repo.CreateTag(name, plumbing.NewHash(id), nil); err != nil {
		return fmt.Errorf("failed to create snapshot '%s': %w", name, err)
	}
	return nil
}

func (j *Journal) Snapshots() ([]Snapshot, error) {
	if err := j.ensureInitialized(); err != nil {
		return nil, err
	}

	iter, err := j.repo.Tags()
	if err != nil {
		return nil, err
	}

	var snapshots []Snapshot
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		snapshots = append(snapshots, Snapshot{Name: ref.Name().Short(), Id: ref.Hash().String()})
		return nil
	})
	return snapshots, err
}

func (j *Journal) DeleteSnapshot(name string) error {
	if err := j.ensureInitialized(); err != nil {
		return err
	}
	if err := j.repo.DeleteTag(name); err != nil {
		return fmt.Errorf("failed to delete snapshot '%s': %w", name, err)
	}
	return nil
}

// Replay returns every statement recorded up to and including the entry,
// in execution order.
func (j *Journal) Replay(id string) ([]string, error) {
	if err := j.ensureInitialized(); err != nil {
		return nil, err
	}

	id, err := j.Resolve(id)
	if err != nil {
		return nil, err
	}

	content, err := j.readFile(plumbing.NewHash(id))
	if err != nil {
		return nil, err
	}
	return splitStatements(content), nil
}

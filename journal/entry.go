package journal

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/nickyhof/CommitORM/core"
)

// Entry is one recorded commit.
type Entry struct {
	Id      string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (entry Entry) String() string {
	return fmt.Sprintf("Entry{Id: %s, When: %s, Author: %s}", entry.Id, entry.When, entry.Author)
}

// Record appends statements to the journal file in one commit.
func (j *Journal) Record(statements []string, identity core.Identity) (Entry, error) {
	if err := j.ensureInitialized(); err != nil {
		return Entry{}, err
	}
	if len(statements) == 0 {
		return Entry{}, ErrNoStatements
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	var content []byte
	if headRef, err := j.repo.Head(); err == nil {
		content, err = j.readFile(headRef.Hash())
		if err != nil {
			return Entry{}, err
		}
	}

	var buf bytes.Buffer
	buf.Write(content)
	for _, statement := range statements {
		buf.WriteString(strings.ReplaceAll(strings.TrimSpace(statement), "\n", " "))
		buf.WriteByte('\n')
	}

	blobHash, err := j.createBlob(buf.Bytes())
	if err != nil {
		return Entry{}, err
	}

	treeHash, err := j.createTree(blobHash)
	if err != nil {
		return Entry{}, err
	}

	message := fmt.Sprintf("Committing %d statement(s)", len(statements))
	return j.createCommitDirect(treeHash, identity, message)
}

// Latest returns the newest entry, or the zero Entry when nothing was
// recorded yet.
func (j *Journal) Latest() Entry {
	if !j.IsInitialized() {
		return Entry{}
	}

	headRef, err := j.repo.Head()
	if err != nil || headRef == nil {
		return Entry{}
	}

	commit, err := j.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Entry{}
	}
	return entryOf(commit)
}

// Entries lists every recorded entry, newest first.
func (j *Journal) Entries() ([]Entry, error) {
	if err := j.ensureInitialized(); err != nil {
		return nil, err
	}

	if _, err := j.repo.Head(); err != nil {
		return nil, nil
	}

	cIter, err := j.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	err = cIter.ForEach(func(c *object.Commit) error {
		entries = append(entries, entryOf(c))
		return nil
	})
	return entries, err
}

// Statements returns the statements recorded by one entry.
func (j *Journal) Statements(id string) ([]string, error) {
	if err := j.ensureInitialized(); err != nil {
		return nil, err
	}

	id, err := j.Resolve(id)
	if err != nil {
		return nil, err
	}

	hash := plumbing.NewHash(id)
	commit, err := j.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("entry %s not found: %w", id, err)
	}

	current, err := j.readFile(hash)
	if err != nil {
		return nil, err
	}

	var previous []byte
	if commit.NumParents() > 0 {
		previous, err = j.readFile(commit.ParentHashes[0])
		if err != nil {
			return nil, err
		}
	}

	return splitStatements(current[len(previous):]), nil
}

func splitStatements(content []byte) []string {
	trimmed := strings.TrimSuffix(string(content), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func entryOf(c *object.Commit) Entry {
	author := ""
	if c.Author.Name != "" || c.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email)
	}
	return Entry{
		Id:      c.Hash.String(),
		When:    c.Committer.When,
		Author:  author,
		Message: c.Message,
	}
}

// Resolve expands an abbreviated entry id or a snapshot name. Full ids are
// returned as is.
func (j *Journal) Resolve(prefix string) (string, error) {
	if len(prefix) == 40 {
		return prefix, nil
	}
	if prefix == "" {
		return "", errors.New("entry id is empty")
	}
	if tag, err := j.repo.Tag(prefix); err == nil {
		return tag.Hash().String(), nil
	}

	entries, err := j.Entries()
	if err != nil {
		return "", err
	}

	var match string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Id, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("entry %s is ambiguous", prefix)
		}
		match = entry.Id
	}
	if match == "" {
		return "", fmt.Errorf("entry %s not found", prefix)
	}
	return match, nil
}

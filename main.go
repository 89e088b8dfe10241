package CommitORM

import (
	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/db"
	"github.com/nickyhof/CommitORM/journal"
)

// Instance hands out sessions that share one journal.
type Instance struct {
	Journal *journal.Journal
	Driver  string
}

// Open returns an instance whose sessions record commits in j. A nil
// journal disables recording.
func Open(j *journal.Journal) *Instance {
	return &Instance{
		Journal: j,
	}
}

func (instance *Instance) Session(locator string, identity core.Identity) *db.Session {
	return db.NewSession(locator, db.Options{
		Driver:   instance.Driver,
		Identity: identity,
		Journal:  instance.Journal,
	})
}

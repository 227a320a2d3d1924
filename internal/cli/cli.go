// Package cli implements the tallyctl commands.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/store"
)

// Context is passed to every command's Run.
type Context struct {
	Ctx     context.Context
	Logs    *logstore.Store
	Docs    *store.DocumentStore
	Backups *backup.Manager
	Out     io.Writer
	Now     func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) today() string {
	return c.now().Format("2006-01-02")
}

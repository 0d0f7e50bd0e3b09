// Package directory pulls ordered changelog entries from the directory
// server that owns the account/user/role/policy/group graph, and turns
// them into a lazy stream the replication driver can consume one entry
// at a time.
package directory

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one changelog record. Changes carries the raw attribute map
// (add/delete) or modification list (modify) exactly as the directory
// server encoded it on the wire; internal/replication is responsible for
// interpreting its shape.
type Entry struct {
	TargetDN     string
	ChangeNumber int64
	ChangeType   string // "add", "modify" or "delete"
	Changes      json.RawMessage
	PostEntry    json.RawMessage // populated only when ChangeType == "modify"
	ChangeTime   time.Time
}

// SearchRequest describes one changelog page fetch.
type SearchRequest struct {
	// MinChangeNumber is the lowest change number to return (inclusive).
	MinChangeNumber int64
	// PageSize bounds both the amount of work per page and the window the
	// poller's targetDN filter covers, so a page can never truncate
	// mid-window and silently drop entries.
	PageSize int
}

// Client is everything Poller requires of a directory-server connection.
// internal/replication never talks to a Client directly — it only ever
// sees Entry values handed to it by the Poller.
type Client interface {
	// SearchChangelog returns entries with change number >= req.MinChangeNumber,
	// ascending, limited to req.PageSize.
	SearchChangelog(ctx context.Context, req SearchRequest) ([]Entry, error)
	Close() error
}

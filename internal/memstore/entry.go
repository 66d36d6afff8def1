// Package memstore implements the durable memory store: an append-only log
// per project with a derived in-memory latest-by-id index, a total order
// over contending versions, and three-valued patch semantics for nullable
// fields.
package memstore

import (
	"strings"
)

// EntrySchema tags memory-entry lines in the shared project log so readers
// can skip experience-schema lines coexisting in the same file.
const EntrySchema = "memory"

// Entry is one version of a memory record.
type Entry struct {
	Schema     string   `json:"schema"`
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
	SessionID  *string  `json:"session_id,omitempty"`
	SubagentID *string  `json:"subagent_id,omitempty"`
	Deleted    bool     `json:"deleted"`
}

// Validate checks the field invariants from the data model: non-blank
// id/kind/content and positive timestamps. It does not check monotonicity,
// which is a property of a *sequence* of versions, not a single entry.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidEntry("id must not be blank")
	}
	if strings.TrimSpace(e.Kind) == "" {
		return ErrInvalidEntry("kind must not be blank")
	}
	if strings.TrimSpace(e.Content) == "" {
		return ErrInvalidEntry("content must not be blank")
	}
	if e.CreatedAt <= 0 {
		return ErrInvalidEntry("created_at must be positive")
	}
	if e.UpdatedAt <= 0 {
		return ErrInvalidEntry("updated_at must be positive")
	}
	return nil
}

// clone returns a deep-enough copy so callers can mutate tags/pointers
// without aliasing stored state.
func (e Entry) clone() Entry {
	c := e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.SessionID != nil {
		v := *e.SessionID
		c.SessionID = &v
	}
	if e.SubagentID != nil {
		v := *e.SubagentID
		c.SubagentID = &v
	}
	return c
}

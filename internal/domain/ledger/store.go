package ledger

import (
	"context"
)

// Store persists the ledger document. Load and Save move the whole state at
// once; there is no partial read or write, which keeps the file format and
// the SQL backend interchangeable.
//
// Update is the single-writer arbitration point: implementations hold their
// lock across the full load-mutate-save cycle, so two goroutines in one
// process can never interleave mutations. The dashboard running as a second
// process against the same file remains a last-writer-wins peer; the
// Postgres backend additionally serializes across processes.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
	Update(ctx context.Context, mutate func(*State) error) error
}

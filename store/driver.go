package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
//
// Every method resolves its connection from ctx: when the orchestrator runs
// inside a unit of work the carried *sql.Tx is used, otherwise the pooled
// *sql.DB.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) error
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// SearchNotes performs the hybrid ownership/similarity/recency query.
	SearchNotes(ctx context.Context, opts *SearchNotesOptions) ([]*NoteWithScore, error)

	// Note-tag association methods.
	SetNoteTags(ctx context.Context, noteID uuid.UUID, tagIDs []uuid.UUID) error
	ListNoteTags(ctx context.Context, find *FindNoteTag) ([]*NoteTag, error)

	// Tag model related methods.
	CreateTag(ctx context.Context, create *Tag) (*Tag, error)
	CreateTags(ctx context.Context, creates []*Tag) ([]*Tag, error)
	ListTags(ctx context.Context, find *FindTag) ([]*Tag, error)
	UpdateTag(ctx context.Context, update *UpdateTag) error
	DeleteTag(ctx context.Context, delete *DeleteTag) error
}

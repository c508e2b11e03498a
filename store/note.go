package store

import (
	"context"

	"github.com/google/uuid"
)

// Note represents a user note with its embedding vector.
//
// Embedding always corresponds to the encoder's output on the note's current
// name and content; every write path that touches either field recomputes it
// before the row is persisted.
type Note struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Content   string
	Embedding []float32
	CreatedTs int64
	UpdatedTs int64
}

// FindNote is the find condition for notes.
type FindNote struct {
	ID      *uuid.UUID
	OwnerID *uuid.UUID
	Limit   *int
	Offset  *int
}

// UpdateNote is a partial update. Nil pointers leave the field untouched.
type UpdateNote struct {
	ID        uuid.UUID
	Name      *string
	Content   *string
	Embedding *[]float32
	UpdatedTs int64
}

// DeleteNote is the delete condition for notes.
type DeleteNote struct {
	ID uuid.UUID
}

// SearchNotesOptions describes the hybrid query: an exact ownership filter,
// an optional similarity filter/ranking, a recency tiebreak and pagination.
type SearchNotesOptions struct {
	OwnerID uuid.UUID
	// Vector is the encoded query. Nil means pure recency ordering.
	Vector []float32
	// MinScore excludes notes with similarity score <= MinScore. Only
	// consulted when Vector is set.
	MinScore float64
	Offset   int
	Limit    int
}

// NoteWithScore is a search result. Score is 1 for recency-only results.
type NoteWithScore struct {
	Note  *Note
	Score float64
}

// CreateNote creates a note row. It participates in the transaction carried
// by ctx, if any.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	return s.driver.CreateNote(ctx, create)
}

// ListNotes lists notes matching the find condition.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the first note matching the find condition, or nil. The
// caller's find condition is left untouched.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	limit := 1
	cond := *find
	cond.Limit = &limit
	list, err := s.driver.ListNotes(ctx, &cond)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateNote applies a partial update to a note row.
func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	return s.driver.UpdateNote(ctx, update)
}

// DeleteNote deletes a note and its tag associations.
func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}

// SearchNotes executes the hybrid query.
func (s *Store) SearchNotes(ctx context.Context, opts *SearchNotesOptions) ([]*NoteWithScore, error) {
	return s.driver.SearchNotes(ctx, opts)
}

// SetNoteTags replaces the tag associations of a note.
func (s *Store) SetNoteTags(ctx context.Context, noteID uuid.UUID, tagIDs []uuid.UUID) error {
	return s.driver.SetNoteTags(ctx, noteID, tagIDs)
}

// ListNoteTags returns (note id, tag) pairs for the given page of note ids,
// scoped to the owner, in a single query.
func (s *Store) ListNoteTags(ctx context.Context, find *FindNoteTag) ([]*NoteTag, error) {
	if len(find.NoteIDs) == 0 {
		return nil, nil
	}
	return s.driver.ListNoteTags(ctx, find)
}

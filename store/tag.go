package store

import (
	"context"

	"github.com/google/uuid"
)

// Tag is an owner-scoped label. (name, owner_id) is unique.
type Tag struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedTs int64
	UpdatedTs int64
}

// FindTag is the find condition for tags.
type FindTag struct {
	ID      *uuid.UUID
	OwnerID *uuid.UUID
	// Names restricts to tags whose name is in the set.
	Names []string
}

// UpdateTag renames a tag.
type UpdateTag struct {
	ID        uuid.UUID
	Name      *string
	UpdatedTs int64
}

// DeleteTag is the delete condition for tags.
type DeleteTag struct {
	ID uuid.UUID
}

// NoteTag associates a tag with a note id in a search result page.
type NoteTag struct {
	NoteID uuid.UUID
	Tag    *Tag
}

// FindNoteTag fetches tag associations for a page of note ids.
type FindNoteTag struct {
	NoteIDs []uuid.UUID
	OwnerID uuid.UUID
}

// CreateTag creates a single tag.
func (s *Store) CreateTag(ctx context.Context, create *Tag) (*Tag, error) {
	return s.driver.CreateTag(ctx, create)
}

// CreateTags batch-inserts tags. Used by get-or-create resolution.
func (s *Store) CreateTags(ctx context.Context, creates []*Tag) ([]*Tag, error) {
	if len(creates) == 0 {
		return nil, nil
	}
	return s.driver.CreateTags(ctx, creates)
}

// ListTags lists tags matching the find condition.
func (s *Store) ListTags(ctx context.Context, find *FindTag) ([]*Tag, error) {
	return s.driver.ListTags(ctx, find)
}

// GetTag returns the tag with the given id, or nil. Reads outside a
// transaction are cached; inside one the cache is bypassed so uncommitted
// rows never land in it.
func (s *Store) GetTag(ctx context.Context, id uuid.UUID) (*Tag, error) {
	_, inTx := TxFromContext(ctx)
	if !inTx {
		if v, ok := s.tagCache.Get(id.String()); ok {
			if tag, ok := v.(*Tag); ok {
				return tag, nil
			}
		}
	}

	list, err := s.driver.ListTags(ctx, &FindTag{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	if !inTx {
		s.tagCache.Set(id.String(), list[0])
	}
	return list[0], nil
}

// UpdateTag renames a tag.
func (s *Store) UpdateTag(ctx context.Context, update *UpdateTag) error {
	if err := s.driver.UpdateTag(ctx, update); err != nil {
		return err
	}
	s.invalidateTag(ctx, update.ID)
	return nil
}

// DeleteTag deletes a tag and its note associations.
func (s *Store) DeleteTag(ctx context.Context, delete *DeleteTag) error {
	if err := s.driver.DeleteTag(ctx, delete); err != nil {
		return err
	}
	s.invalidateTag(ctx, delete.ID)
	return nil
}

// invalidateTag drops the cached entry once the write is durable: after the
// commit inside a transaction, immediately otherwise. A concurrent read that
// re-caches the old row mid-transaction is overruled by the post-commit
// delete.
func (s *Store) invalidateTag(ctx context.Context, id uuid.UUID) {
	key := id.String()
	if !onCommit(ctx, func() { s.tagCache.Delete(key) }) {
		s.tagCache.Delete(key)
	}
}

// Package tag implements tag resolution and CRUD.
package tag

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	serrors "github.com/seminote/seminote/server/internal/errors"
	"github.com/seminote/seminote/store"
)

// Service owns the Tag entity: lazy get-or-create resolution during note
// writes, plus the direct CRUD surface.
type Service struct {
	store *store.Store
}

func NewService(store *store.Store) *Service {
	return &Service{store: store}
}

// GetOrCreate resolves tag names to entities for one owner, creating the
// missing ones in a single batch. Duplicate names in the input collapse to
// one tag; tags of other owners are never touched. Two concurrent requests
// creating the same name race on the (name, owner_id) unique constraint and
// the loser's request fails; no retry is attempted.
func (s *Service) GetOrCreate(ctx context.Context, ownerID uuid.UUID, names []string) ([]*store.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(names))
	deduped := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			deduped = append(deduped, name)
		}
	}

	existing, err := s.store.ListTags(ctx, &store.FindTag{OwnerID: &ownerID, Names: deduped})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find existing tags")
	}

	found := make(map[string]bool, len(existing))
	for _, tag := range existing {
		found[tag.Name] = true
	}

	now := time.Now().Unix()
	creates := []*store.Tag{}
	for _, name := range deduped {
		if !found[name] {
			creates = append(creates, &store.Tag{
				ID:        uuid.New(),
				OwnerID:   ownerID,
				Name:      name,
				CreatedTs: now,
				UpdatedTs: now,
			})
		}
	}

	created, err := s.store.CreateTags(ctx, creates)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tags")
	}
	return append(existing, created...), nil
}

// GetOwned returns the tag if it exists and belongs to ownerID. A missing id
// yields NotFound; an existing tag of another owner yields Forbidden.
func (s *Service) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*store.Tag, error) {
	tag, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tag")
	}
	if tag == nil {
		return nil, serrors.NotFound("Tag %s was not found.", id)
	}
	if tag.OwnerID != ownerID {
		return nil, serrors.Forbidden("You have access only to your tags. This one is not yours.")
	}
	return tag, nil
}

// List returns all tags of the owner.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*store.Tag, error) {
	return s.store.ListTags(ctx, &store.FindTag{OwnerID: &ownerID})
}

// Create creates a single tag for the owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*store.Tag, error) {
	now := time.Now().Unix()
	tag := &store.Tag{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.store.CreateTag(ctx, tag)
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "failed to create tag")
	}
	return tag, nil
}

// Update renames an owned tag. A nil name is a no-op.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, name *string) error {
	if name == nil {
		return nil
	}
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
			return err
		}
		return s.store.UpdateTag(ctx, &store.UpdateTag{
			ID:        id,
			Name:      name,
			UpdatedTs: time.Now().Unix(),
		})
	})
}

// Delete removes an owned tag; its note associations cascade.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
			return err
		}
		return s.store.DeleteTag(ctx, &store.DeleteTag{ID: id})
	})
}

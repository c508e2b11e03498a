// Package note implements the note lifecycle: create, update, delete, get
// and hybrid search, keeping embeddings consistent with their source text.
package note

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/server/ai"
	serrors "github.com/seminote/seminote/server/internal/errors"
	"github.com/seminote/seminote/server/service/tag"
	"github.com/seminote/seminote/store"
)

// Service orchestrates the tag resolver, the note store and the search
// engine. Every mutating operation runs in one unit of work: ownership check
// first, then mutation, then a single commit.
type Service struct {
	store   *store.Store
	tags    *tag.Service
	encoder ai.Encoder
	profile *profile.Profile
}

func NewService(store *store.Store, tags *tag.Service, encoder ai.Encoder, profile *profile.Profile) *Service {
	return &Service{
		store:   store,
		tags:    tags,
		encoder: encoder,
		profile: profile,
	}
}

// CreateRequest carries the fields of a note creation.
type CreateRequest struct {
	Name    string
	Content string
	Tags    []string
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name    *string
	Content *string
	Tags    *[]string
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Content == nil && r.Tags == nil
}

// Result is a note with its tags attached, in presentation order.
type Result struct {
	ID      uuid.UUID
	Name    string
	Content string
	Tags    []*store.Tag
}

// Create encodes the derived source text, then creates the note and its tag
// associations in one transaction.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateRequest) (*Result, error) {
	embedding, err := s.encoder.Embed(ctx, ai.DeriveSource(req.Name, req.Content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode note")
	}

	now := time.Now().Unix()
	note := &store.Note{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Content:   req.Content,
		Embedding: embedding,
		CreatedTs: now,
		UpdatedTs: now,
	}

	var tags []*store.Tag
	if err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if tags, err = s.tags.GetOrCreate(ctx, ownerID, req.Tags); err != nil {
			return err
		}
		if _, err := s.store.CreateNote(ctx, note); err != nil {
			return err
		}
		return s.store.SetNoteTags(ctx, note.ID, tagIDs(tags))
	}); err != nil {
		return nil, err
	}

	return &Result{ID: note.ID, Name: note.Name, Content: note.Content, Tags: orEmpty(tags)}, nil
}

// GetOwned returns the note if it exists and belongs to ownerID. A missing
// id yields NotFound; an existing note of another owner yields Forbidden —
// the two outcomes are deliberately distinct.
func (s *Service) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, &store.FindNote{ID: &id})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get note")
	}
	if note == nil {
		return nil, serrors.NotFound("Note %s was not found.", id)
	}
	if note.OwnerID != ownerID {
		return nil, serrors.Forbidden("You have access only to your notes. This one is not yours.")
	}
	return note, nil
}

// Get returns an owned note with its tags.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Result, error) {
	note, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	noteTags, err := s.store.ListNoteTags(ctx, &store.FindNoteTag{NoteIDs: []uuid.UUID{id}, OwnerID: ownerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note tags")
	}

	tags := []*store.Tag{}
	for _, nt := range noteTags {
		tags = append(tags, nt.Tag)
	}
	return &Result{ID: note.ID, Name: note.Name, Content: note.Content, Tags: tags}, nil
}

// Update applies a partial update. Tag names are resolved before field
// application; if name or content is touched the embedding is recomputed
// from the post-assignment values, inside the same transaction, so a note is
// never committed with a stale embedding. An empty request is a no-op.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, req *UpdateRequest) error {
	if req.IsEmpty() {
		return nil
	}

	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		note, err := s.GetOwned(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if req.Tags != nil {
			tags, err := s.tags.GetOrCreate(ctx, ownerID, *req.Tags)
			if err != nil {
				return err
			}
			if err := s.store.SetNoteTags(ctx, note.ID, tagIDs(tags)); err != nil {
				return err
			}
		}

		update := &store.UpdateNote{
			ID:        note.ID,
			Name:      req.Name,
			Content:   req.Content,
			UpdatedTs: time.Now().Unix(),
		}

		if req.Name != nil || req.Content != nil {
			name, content := note.Name, note.Content
			if req.Name != nil {
				name = *req.Name
			}
			if req.Content != nil {
				content = *req.Content
			}
			embedding, err := s.encoder.Embed(ctx, ai.DeriveSource(name, content))
			if err != nil {
				return errors.Wrap(err, "failed to re-encode note")
			}
			update.Embedding = &embedding
		}

		return s.store.UpdateNote(ctx, update)
	})
}

// Delete removes an owned note; its tag associations cascade.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
			return err
		}
		return s.store.DeleteNote(ctx, &store.DeleteNote{ID: id})
	})
}

// Search runs the hybrid query. An empty query lists by recency without
// touching the encoder; otherwise the query is encoded and results are
// ordered by similarity, recency breaking ties. Tags for the selected page
// are fetched in one follow-up query and attached without reordering.
func (s *Service) Search(ctx context.Context, ownerID uuid.UUID, query string, offset, limit int) ([]*Result, error) {
	start := time.Now()
	opts := &store.SearchNotesOptions{
		OwnerID:  ownerID,
		MinScore: s.profile.SearchMinScore,
		Offset:   offset,
		Limit:    limit,
	}

	if query != "" {
		vector, err := s.encoder.Embed(ctx, query)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode query")
		}
		opts.Vector = vector
	}

	scored, err := s.store.SearchNotes(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search notes")
	}

	noteIDs := make([]uuid.UUID, len(scored))
	for i, r := range scored {
		noteIDs[i] = r.Note.ID
	}

	noteTags, err := s.store.ListNoteTags(ctx, &store.FindNoteTag{NoteIDs: noteIDs, OwnerID: ownerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note tags")
	}
	tagsByNote := make(map[uuid.UUID][]*store.Tag)
	for _, nt := range noteTags {
		tagsByNote[nt.NoteID] = append(tagsByNote[nt.NoteID], nt.Tag)
	}

	results := make([]*Result, len(scored))
	for i, r := range scored {
		results[i] = &Result{
			ID:      r.Note.ID,
			Name:    r.Note.Name,
			Content: r.Note.Content,
			Tags:    orEmpty(tagsByNote[r.Note.ID]),
		}
	}

	slog.Debug("note search",
		slog.Int("results", len(results)),
		slog.Bool("semantic", query != ""),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return results, nil
}

func tagIDs(tags []*store.Tag) []uuid.UUID {
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

func orEmpty(tags []*store.Tag) []*store.Tag {
	if tags == nil {
		return []*store.Tag{}
	}
	return tags
}

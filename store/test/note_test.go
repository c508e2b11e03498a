package test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/seminote/seminote/store"
)

func TestNoteStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()

	note, err := ts.CreateNote(ctx, &store.Note{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      "groceries",
		Content:   "milk, eggs",
		Embedding: []float32{1, 0, 0},
		CreatedTs: 100,
		UpdatedTs: 100,
	})
	require.NoError(t, err)

	got, err := ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, note.ID, got.ID)
	require.Equal(t, ownerID, got.OwnerID)
	require.Equal(t, "groceries", got.Name)
	require.Equal(t, "milk, eggs", got.Content)
	require.Equal(t, []float32{1, 0, 0}, got.Embedding)

	newName := "errands"
	newEmbedding := []float32{0, 1, 0}
	err = ts.UpdateNote(ctx, &store.UpdateNote{
		ID:        note.ID,
		Name:      &newName,
		Embedding: &newEmbedding,
		UpdatedTs: 200,
	})
	require.NoError(t, err)

	got, err = ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	require.Equal(t, "errands", got.Name)
	require.Equal(t, "milk, eggs", got.Content)
	require.Equal(t, []float32{0, 1, 0}, got.Embedding)
	require.Equal(t, int64(200), got.UpdatedTs)

	// A fully-nil update must not touch the row.
	err = ts.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, UpdatedTs: 300})
	require.NoError(t, err)
	got, err = ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	require.Equal(t, int64(200), got.UpdatedTs)

	err = ts.DeleteNote(ctx, &store.DeleteNote{ID: note.ID})
	require.NoError(t, err)
	got, err = ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetNoteLeavesFindUntouched(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	note, err := ts.CreateNote(ctx, &store.Note{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "note",
		CreatedTs: 1,
		UpdatedTs: 1,
	})
	require.NoError(t, err)

	find := &store.FindNote{ID: &note.ID}
	got, err := ts.GetNote(ctx, find)
	require.NoError(t, err)
	require.NotNil(t, got)

	// The find condition stays reusable: no limit sneaks in.
	require.Nil(t, find.Limit)
	require.Nil(t, find.Offset)
}

func TestNoteStoreOwnerScope(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	alice, bob := uuid.New(), uuid.New()

	for i, ownerID := range []uuid.UUID{alice, alice, bob} {
		_, err := ts.CreateNote(ctx, &store.Note{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Name:      "note",
			CreatedTs: int64(i),
			UpdatedTs: int64(i),
		})
		require.NoError(t, err)
	}

	list, err := ts.ListNotes(ctx, &store.FindNote{OwnerID: &alice})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		require.Equal(t, alice, n.OwnerID)
	}
}

func TestSearchNotesByRecency(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		note, err := ts.CreateNote(ctx, &store.Note{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Name:      "note",
			CreatedTs: int64(i + 1),
			UpdatedTs: int64(i + 1),
		})
		require.NoError(t, err)
		ids[i] = note.ID
	}

	results, err := ts.SearchNotes(ctx, &store.SearchNotesOptions{
		OwnerID: ownerID,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Newest first, every score pinned to 1.
	require.Equal(t, ids[2], results[0].Note.ID)
	require.Equal(t, ids[1], results[1].Note.ID)
	require.Equal(t, ids[0], results[2].Note.ID)
	for _, r := range results {
		require.Equal(t, float64(1), r.Score)
	}
}

func TestSearchNotesBySimilarity(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()

	seed := func(name string, embedding []float32, createdTs int64) uuid.UUID {
		note, err := ts.CreateNote(ctx, &store.Note{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Name:      name,
			Embedding: embedding,
			CreatedTs: createdTs,
			UpdatedTs: createdTs,
		})
		require.NoError(t, err)
		return note.ID
	}

	closeID := seed("close", []float32{1, 0, 0}, 1)
	midID := seed("mid", []float32{1, 1, 0}, 2)
	seed("orthogonal", []float32{0, 0, 1}, 3)
	seed("unembedded", nil, 4)

	results, err := ts.SearchNotes(ctx, &store.SearchNotesOptions{
		OwnerID:  ownerID,
		Vector:   []float32{1, 0, 0},
		MinScore: 0.1,
		Limit:    10,
	})
	require.NoError(t, err)

	// The orthogonal note scores 0 and falls below the threshold; the
	// unembedded note never qualifies for similarity search at all.
	require.Len(t, results, 2)
	require.Equal(t, closeID, results[0].Note.ID)
	require.Equal(t, midID, results[1].Note.ID)
	require.Greater(t, results[0].Score, results[1].Score)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestSearchNotesScoreTiebreak(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()

	// Identical embeddings tie on score; recency must decide.
	olderID, newerID := uuid.New(), uuid.New()
	for _, n := range []*store.Note{
		{ID: olderID, OwnerID: ownerID, Name: "older", Embedding: []float32{1, 0}, CreatedTs: 1, UpdatedTs: 1},
		{ID: newerID, OwnerID: ownerID, Name: "newer", Embedding: []float32{1, 0}, CreatedTs: 2, UpdatedTs: 2},
	} {
		_, err := ts.CreateNote(ctx, n)
		require.NoError(t, err)
	}

	results, err := ts.SearchNotes(ctx, &store.SearchNotesOptions{
		OwnerID:  ownerID,
		Vector:   []float32{1, 0},
		MinScore: 0.1,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, newerID, results[0].Note.ID)
	require.Equal(t, olderID, results[1].Note.ID)
}

func TestSearchNotesPagination(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()

	const total = 7
	for i := 0; i < total; i++ {
		_, err := ts.CreateNote(ctx, &store.Note{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Name:      "note",
			Embedding: []float32{1, 0},
			CreatedTs: int64(i),
			UpdatedTs: int64(i),
		})
		require.NoError(t, err)
	}

	// Walking pages must partition the full ordering: no gaps, no repeats.
	seen := map[uuid.UUID]bool{}
	for offset := 0; offset < total; offset += 3 {
		page, err := ts.SearchNotes(ctx, &store.SearchNotesOptions{
			OwnerID:  ownerID,
			Vector:   []float32{1, 0},
			MinScore: 0.1,
			Offset:   offset,
			Limit:    3,
		})
		require.NoError(t, err)
		for _, r := range page {
			require.False(t, seen[r.Note.ID])
			seen[r.Note.ID] = true
		}
	}
	require.Len(t, seen, total)

	// Past-the-end offset and zero limit both yield an empty page.
	page, err := ts.SearchNotes(ctx, &store.SearchNotesOptions{
		OwnerID:  ownerID,
		Vector:   []float32{1, 0},
		MinScore: 0.1,
		Offset:   100,
		Limit:    3,
	})
	require.NoError(t, err)
	require.Empty(t, page)

	page, err = ts.SearchNotes(ctx, &store.SearchNotesOptions{
		OwnerID:  ownerID,
		Vector:   []float32{1, 0},
		MinScore: 0.1,
		Limit:    0,
	})
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestRunInTxRollback(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	ownerID := uuid.New()
	noteID := uuid.New()

	err := ts.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := ts.CreateNote(ctx, &store.Note{
			ID:        noteID,
			OwnerID:   ownerID,
			Name:      "doomed",
			CreatedTs: 1,
			UpdatedTs: 1,
		}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := ts.GetNote(ctx, &store.FindNote{ID: &noteID})
	require.NoError(t, err)
	require.Nil(t, got)
}

package sqlite

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/seminote/seminote/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	stmt := `
		INSERT INTO note (id, owner_id, name, content, embedding, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
	`
	_, err := d.conn(ctx).ExecContext(ctx, stmt,
		create.ID.String(),
		create.OwnerID.String(),
		create.Name,
		create.Content,
		encodeVector(create.Embedding),
		create.CreatedTs,
		create.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, find.ID.String())
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = ?"), append(args, find.OwnerID.String())
	}

	query := `
		SELECT id, owner_id, name, content, embedding, created_ts, updated_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, note)
	}
	return list, rows.Err()
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Content != nil {
		set, args = append(set, "content = ?"), append(args, *update.Content)
	}
	if update.Embedding != nil {
		set, args = append(set, "embedding = ?"), append(args, encodeVector(*update.Embedding))
	}
	if len(set) == 0 {
		return nil
	}
	set, args = append(set, "updated_ts = ?"), append(args, update.UpdatedTs)
	args = append(args, update.ID.String())

	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := d.conn(ctx).ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	conn := d.conn(ctx)
	// Explicit association cleanup; works even when foreign_keys is off.
	if _, err := conn.ExecContext(ctx, `DELETE FROM note_tag WHERE note_id = ?`, delete.ID.String()); err != nil {
		return errors.Wrap(err, "failed to delete note tag associations")
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, delete.ID.String()); err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	return nil
}

// SearchNotes implements the hybrid query with an in-process similarity
// scan: SQLite has no vector operator, so all candidate embeddings of the
// owner are loaded and scored in memory. Semantics match the pgvector path.
func (d *DB) SearchNotes(ctx context.Context, opts *store.SearchNotesOptions) ([]*store.NoteWithScore, error) {
	if opts.Vector == nil {
		return d.searchNotesByRecency(ctx, opts)
	}

	rows, err := d.conn(ctx).QueryContext(ctx, `
		SELECT id, owner_id, name, content, embedding, created_ts, updated_ts
		FROM note
		WHERE owner_id = ? AND embedding IS NOT NULL
	`, opts.OwnerID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load candidate notes")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		if len(note.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(note.Embedding, opts.Vector)
		if score <= opts.MinScore {
			continue
		}
		results = append(results, &store.NoteWithScore{Note: note, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Most similar first; recency then id break ties deterministically.
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Note.CreatedTs != b.Note.CreatedTs {
			return a.Note.CreatedTs > b.Note.CreatedTs
		}
		return a.Note.ID.String() > b.Note.ID.String()
	})

	return paginate(results, opts.Offset, opts.Limit), nil
}

func (d *DB) searchNotesByRecency(ctx context.Context, opts *store.SearchNotesOptions) ([]*store.NoteWithScore, error) {
	rows, err := d.conn(ctx).QueryContext(ctx, `
		SELECT id, owner_id, name, content, embedding, created_ts, updated_ts
		FROM note
		WHERE owner_id = ?
		ORDER BY created_ts DESC, id DESC
		LIMIT ? OFFSET ?
	`, opts.OwnerID.String(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes by recency")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &store.NoteWithScore{Note: note, Score: 1})
	}
	return results, rows.Err()
}

func paginate(results []*store.NoteWithScore, offset, limit int) []*store.NoteWithScore {
	if offset >= len(results) || limit <= 0 {
		return []*store.NoteWithScore{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*store.Note, error) {
	var note store.Note
	var id, ownerID string
	var embedding []byte

	if err := row.Scan(&id, &ownerID, &note.Name, &note.Content, &embedding, &note.CreatedTs, &note.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to scan note")
	}

	var err error
	if note.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrap(err, "failed to parse note id")
	}
	if note.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, errors.Wrap(err, "failed to parse owner id")
	}
	if note.Embedding, err = decodeVector(embedding); err != nil {
		return nil, err
	}
	return &note, nil
}

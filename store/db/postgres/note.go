package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/seminote/seminote/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	stmt := `
		INSERT INTO note (id, owner_id, name, content, embedding, created_ts, updated_ts)
		VALUES (` + placeholders(1, 7) + `)
	`
	_, err := d.conn(ctx).ExecContext(ctx, stmt,
		create.ID,
		create.OwnerID,
		create.Name,
		create.Content,
		pgvector.NewVector(create.Embedding),
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
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}

	query := `
		SELECT id, owner_id, name, content, embedding::text, created_ts, updated_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
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
		var note store.Note
		var embedding sql.NullString
		if err := rows.Scan(&note.ID, &note.OwnerID, &note.Name, &note.Content, &embedding, &note.CreatedTs, &note.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		if embedding.Valid {
			if note.Embedding, err = parseVectorText(embedding.String); err != nil {
				return nil, err
			}
		}
		list = append(list, &note)
	}
	return list, rows.Err()
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Content != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *update.Content)
	}
	if update.Embedding != nil {
		set, args = append(set, "embedding = "+placeholder(len(args)+1)), append(args, pgvector.NewVector(*update.Embedding))
	}
	if len(set) == 0 {
		return nil
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)
	args = append(args, update.ID)

	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.conn(ctx).ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	// note_tag rows cascade via the foreign key.
	if _, err := d.conn(ctx).ExecContext(ctx, `DELETE FROM note WHERE id = $1`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	return nil
}

// SearchNotes pushes the hybrid query into SQL. The <=> operator computes
// cosine distance; score is 1 - distance, and ordering by the operator gives
// most-similar-first without recomputing the score.
func (d *DB) SearchNotes(ctx context.Context, opts *store.SearchNotesOptions) ([]*store.NoteWithScore, error) {
	if opts.Vector == nil {
		return d.searchNotesByRecency(ctx, opts)
	}

	query := `
		SELECT id, owner_id, name, content, created_ts, updated_ts,
			1 - (embedding <=> $1) AS score
		FROM note
		WHERE owner_id = $2
			AND embedding IS NOT NULL
			AND 1 - (embedding <=> $1) > $3
		ORDER BY embedding <=> $1, created_ts DESC, id DESC
		OFFSET $4 LIMIT $5
	`
	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.conn(ctx).QueryContext(ctx, query,
		vector,
		opts.OwnerID,
		opts.MinScore,
		opts.Offset,
		opts.Limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search notes by vector")
	}
	defer rows.Close()

	return scanNoteScores(rows)
}

func (d *DB) searchNotesByRecency(ctx context.Context, opts *store.SearchNotesOptions) ([]*store.NoteWithScore, error) {
	query := `
		SELECT id, owner_id, name, content, created_ts, updated_ts, 1::float8 AS score
		FROM note
		WHERE owner_id = $1
		ORDER BY created_ts DESC, id DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := d.conn(ctx).QueryContext(ctx, query, opts.OwnerID, opts.Offset, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes by recency")
	}
	defer rows.Close()

	return scanNoteScores(rows)
}

func scanNoteScores(rows *sql.Rows) ([]*store.NoteWithScore, error) {
	results := []*store.NoteWithScore{}
	for rows.Next() {
		var note store.Note
		var score float64
		if err := rows.Scan(&note.ID, &note.OwnerID, &note.Name, &note.Content, &note.CreatedTs, &note.UpdatedTs, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		results = append(results, &store.NoteWithScore{Note: &note, Score: score})
	}
	return results, rows.Err()
}

// parseVectorText parses pgvector's text representation "[x,y,z]".
func parseVectorText(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse vector component")
		}
		v[i] = float32(f)
	}
	return v, nil
}

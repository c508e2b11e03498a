package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/seminote/seminote/store"
)

func (d *DB) CreateTag(ctx context.Context, create *store.Tag) (*store.Tag, error) {
	list, err := d.CreateTags(ctx, []*store.Tag{create})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

func (d *DB) CreateTags(ctx context.Context, creates []*store.Tag) ([]*store.Tag, error) {
	values, args := []string{}, []any{}
	for _, tag := range creates {
		values = append(values, "("+placeholders(len(args)+1, 5)+")")
		args = append(args, tag.ID, tag.OwnerID, tag.Name, tag.CreatedTs, tag.UpdatedTs)
	}

	stmt := `
		INSERT INTO tag (id, owner_id, name, created_ts, updated_ts)
		VALUES ` + strings.Join(values, ", ")
	if _, err := d.conn(ctx).ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create tags")
	}
	return creates, nil
}

func (d *DB) ListTags(ctx context.Context, find *store.FindTag) ([]*store.Tag, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if len(find.Names) > 0 {
		where = append(where, "name IN ("+placeholders(len(args)+1, len(find.Names))+")")
		for _, name := range find.Names {
			args = append(args, name)
		}
	}

	query := `
		SELECT id, owner_id, name, created_ts, updated_ts
		FROM tag
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC
	`
	rows, err := d.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	defer rows.Close()

	list := []*store.Tag{}
	for rows.Next() {
		var tag store.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedTs, &tag.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag")
		}
		list = append(list, &tag)
	}
	return list, rows.Err()
}

func (d *DB) UpdateTag(ctx context.Context, update *store.UpdateTag) error {
	if update.Name == nil {
		return nil
	}
	stmt := `UPDATE tag SET name = $1, updated_ts = $2 WHERE id = $3`
	if _, err := d.conn(ctx).ExecContext(ctx, stmt, *update.Name, update.UpdatedTs, update.ID); err != nil {
		return errors.Wrap(err, "failed to update tag")
	}
	return nil
}

func (d *DB) DeleteTag(ctx context.Context, delete *store.DeleteTag) error {
	if _, err := d.conn(ctx).ExecContext(ctx, `DELETE FROM tag WHERE id = $1`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete tag")
	}
	return nil
}

func (d *DB) SetNoteTags(ctx context.Context, noteID uuid.UUID, tagIDs []uuid.UUID) error {
	conn := d.conn(ctx)
	if _, err := conn.ExecContext(ctx, `DELETE FROM note_tag WHERE note_id = $1`, noteID); err != nil {
		return errors.Wrap(err, "failed to clear note tags")
	}
	if len(tagIDs) == 0 {
		return nil
	}

	values, args := []string{}, []any{}
	for _, tagID := range tagIDs {
		values = append(values, "("+placeholders(len(args)+1, 2)+")")
		args = append(args, noteID, tagID)
	}
	stmt := `INSERT INTO note_tag (note_id, tag_id) VALUES ` + strings.Join(values, ", ")
	if _, err := conn.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to set note tags")
	}
	return nil
}

func (d *DB) ListNoteTags(ctx context.Context, find *store.FindNoteTag) ([]*store.NoteTag, error) {
	args := []any{find.OwnerID}
	for _, noteID := range find.NoteIDs {
		args = append(args, noteID)
	}

	query := `
		SELECT nt.note_id, t.id, t.owner_id, t.name, t.created_ts, t.updated_ts
		FROM note_tag nt
		JOIN tag t ON t.id = nt.tag_id
		WHERE t.owner_id = $1 AND nt.note_id IN (` + placeholders(2, len(find.NoteIDs)) + `)
		ORDER BY t.name ASC
	`
	rows, err := d.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note tags")
	}
	defer rows.Close()

	list := []*store.NoteTag{}
	for rows.Next() {
		var nt store.NoteTag
		var tag store.Tag
		if err := rows.Scan(&nt.NoteID, &tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedTs, &tag.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan note tag")
		}
		nt.Tag = &tag
		list = append(list, &nt)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"

	"howett.net/vellum"
)

func (p *provider) CreatePaste(ctx context.Context, paste *vellum.Paste) error {
	return p.DB.QueryRowxContext(ctx,
		`INSERT INTO pastes(
			id,
			name,
			description,
			visibility,
			author_id,
			expires_at,
			created_at
		) VALUES($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`,
		paste.ID, paste.Name, paste.Description, paste.Visibility, paste.AuthorID, paste.ExpiresAt,
	).Scan(&paste.CreatedAt)
}

func (p *provider) GetPaste(ctx context.Context, id vellum.PasteID) (*vellum.Paste, error) {
	var paste vellum.Paste
	if err := p.DB.GetContext(ctx, &paste, `SELECT * FROM pastes WHERE id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, vellum.ErrNotFound
		}
		return nil, err
	}
	return &paste, nil
}

func (p *provider) UpdatePaste(ctx context.Context, paste *vellum.Paste) error {
	res, err := p.DB.ExecContext(ctx,
		`UPDATE pastes
		SET name = $1, description = $2, visibility = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $5`,
		paste.Name, paste.Description, paste.Visibility, paste.ExpiresAt, paste.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return vellum.ErrNotFound
	}
	return nil
}

func (p *provider) TouchPaste(ctx context.Context, id vellum.PasteID) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE pastes SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (p *provider) DestroyPaste(ctx context.Context, id vellum.PasteID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// files and deletion_keys cascade from the paste row.
	res, err := tx.ExecContext(ctx, `DELETE FROM pastes WHERE id = $1`, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return vellum.ErrNotFound
	}

	return tx.Commit()
}

package postgres

import (
	"context"
	"database/sql"

	"howett.net/vellum"
)

func (p *provider) GetUser(ctx context.Context, id vellum.UserID) (*vellum.User, error) {
	var u vellum.User
	if err := p.DB.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, vellum.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (p *provider) GetUserPastes(ctx context.Context, id vellum.UserID) ([]vellum.PasteID, error) {
	var ids []vellum.PasteID
	err := p.DB.SelectContext(ctx, &ids,
		`SELECT id FROM pastes WHERE author_id = $1 ORDER BY created_at`, id)
	return ids, err
}

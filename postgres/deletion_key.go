package postgres

import (
	"context"
	"database/sql"

	"howett.net/vellum"
)

func (p *provider) CreateDeletionKey(ctx context.Context, k *vellum.DeletionKey) error {
	return p.DB.QueryRowxContext(ctx,
		`INSERT INTO deletion_keys(
			id,
			paste_id,
			hash,
			salt,
			created_at
		) VALUES($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		k.ID, k.PasteID, k.Hash, k.Salt,
	).Scan(&k.CreatedAt)
}

func (p *provider) GetDeletionKey(ctx context.Context, id vellum.PasteID) (*vellum.DeletionKey, error) {
	var k vellum.DeletionKey
	if err := p.DB.GetContext(ctx, &k, `SELECT * FROM deletion_keys WHERE paste_id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, vellum.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"howett.net/vellum"
)

func isUniquenessError(err error) bool {
	pqe, ok := err.(*pq.Error)
	return ok && pqe.Code == pq.ErrorCode("23505")
}

func (p *provider) CreateFile(ctx context.Context, f *vellum.File) error {
	err := p.DB.QueryRowxContext(ctx,
		`INSERT INTO files(
			id,
			paste_id,
			name,
			is_binary,
			highlight_language,
			created_at
		) VALUES($1, $2, $3, $4, $5, NOW())
		RETURNING seq, created_at`,
		f.ID, f.PasteID, f.Name, f.IsBinary, f.Language,
	).Scan(&f.Seq, &f.CreatedAt)
	if isUniquenessError(err) {
		return &vellum.FieldError{
			Code:    vellum.CodeDuplicateFileNames,
			Field:   "name",
			Message: "duplicate file name",
		}
	}
	return err
}

func (p *provider) GetFile(ctx context.Context, id vellum.FileID) (*vellum.File, error) {
	var f vellum.File
	if err := p.DB.GetContext(ctx, &f, `SELECT * FROM files WHERE id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, vellum.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (p *provider) GetPasteFiles(ctx context.Context, id vellum.PasteID) ([]vellum.File, error) {
	var files []vellum.File
	err := p.DB.SelectContext(ctx, &files,
		`SELECT * FROM files WHERE paste_id = $1 ORDER BY seq`, id)
	return files, err
}

func (p *provider) UpdateFile(ctx context.Context, f *vellum.File) error {
	res, err := p.DB.ExecContext(ctx,
		`UPDATE files SET name = $1, is_binary = $2, highlight_language = $3 WHERE id = $4`,
		f.Name, f.IsBinary, f.Language, f.ID)
	if isUniquenessError(err) {
		return &vellum.FieldError{
			Code:    vellum.CodeDuplicateFileNames,
			Field:   "name",
			Message: "duplicate file name",
		}
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return vellum.ErrNotFound
	}
	return nil
}

func (p *provider) DestroyFile(ctx context.Context, id vellum.FileID) error {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return vellum.ErrNotFound
	}
	return nil
}

func (p *provider) CountPasteFiles(ctx context.Context, id vellum.PasteID) (int, error) {
	var n int
	err := p.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM files WHERE paste_id = $1`, id)
	return n, err
}

package vellum

import "time"

// File is the per-file relational row. Content bytes are addressed by ID
// in the versioned file store, never stored here.
type File struct {
	ID      FileID  `db:"id"`
	PasteID PasteID `db:"paste_id"`

	// Seq orders a paste's files by insertion, assigned by the
	// database on insert.
	Seq int64 `db:"seq"`

	Name      string    `db:"name"`
	IsBinary  *bool     `db:"is_binary"`
	Language  *string   `db:"highlight_language"`
	CreatedAt time.Time `db:"created_at"`
}

// Binary reports the stored classification; files created before
// classification existed have a nil flag and are treated as text.
func (f *File) Binary() bool {
	return f.IsBinary != nil && *f.IsBinary
}

package vellum

import "time"

// DeletionKey authorizes destruction of an anonymous paste in lieu of an
// author. Only the salted scrypt hash of the secret is stored; one key
// exists iff the owning paste is anonymous.
type DeletionKey struct {
	ID        DeletionKeyID `db:"id"`
	PasteID   PasteID       `db:"paste_id"`
	Hash      []byte        `db:"hash"`
	Salt      []byte        `db:"salt"`
	CreatedAt time.Time     `db:"created_at"`
}

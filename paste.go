package vellum

import (
	"context"
	"net/http"
	"time"
)

// Paste is the relational aggregate root. The byte content of its files
// lives in the versioned file store; the rows here carry metadata only.
type Paste struct {
	ID          PasteID    `db:"id"`
	Name        *string    `db:"name"`
	Description *string    `db:"description"`
	Visibility  Visibility `db:"visibility"`
	AuthorID    *UserID    `db:"author_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
	ExpiresAt   *time.Time `db:"expires_at"`
}

// Anonymous reports whether the paste has no author. Anonymous pastes are
// always publicly readable and are owned by their deletion key.
func (p *Paste) Anonymous() bool {
	return p.AuthorID == nil
}

// CheckAccess is the gate every read passes through. It returns nil when
// access is allowed. Private pastes deny with a 404 so that their
// existence cannot be enumerated; the 403 branch is reachable only if a
// future visibility rule denies access to a non-private paste.
func (p *Paste) CheckAccess(requester *UserID) *AccessDenial {
	if p.Visibility != VisibilityPrivate {
		return nil
	}
	if p.Anonymous() {
		return nil
	}
	if requester != nil && *requester == *p.AuthorID {
		return nil
	}
	if p.Visibility == VisibilityPrivate {
		return &AccessDenial{Status: http.StatusNotFound, Err: ErrNotFound}
	}
	// Unreachable under the current visibility rules; kept so that a
	// future non-private denial reads as forbidden, not missing.
	return &AccessDenial{Status: http.StatusForbidden, Err: ErrNotAllowed}
}

// SweptPaste identifies an expired paste removed from the database; the
// caller is responsible for removing its on-disk tree.
type SweptPaste struct {
	ID       PasteID `db:"id"`
	AuthorID *UserID `db:"author_id"`
}

// Provider is the relational collaborator. Implementations map rows to
// the domain records; they never touch the versioned file store.
type Provider interface {
	CreatePaste(ctx context.Context, p *Paste) error
	GetPaste(ctx context.Context, id PasteID) (*Paste, error)
	UpdatePaste(ctx context.Context, p *Paste) error
	TouchPaste(ctx context.Context, id PasteID) error
	DestroyPaste(ctx context.Context, id PasteID) error

	CreateFile(ctx context.Context, f *File) error
	GetFile(ctx context.Context, id FileID) (*File, error)
	GetPasteFiles(ctx context.Context, id PasteID) ([]File, error)
	UpdateFile(ctx context.Context, f *File) error
	DestroyFile(ctx context.Context, id FileID) error
	CountPasteFiles(ctx context.Context, id PasteID) (int, error)

	CreateDeletionKey(ctx context.Context, k *DeletionKey) error
	GetDeletionKey(ctx context.Context, id PasteID) (*DeletionKey, error)

	GetUser(ctx context.Context, id UserID) (*User, error)
	GetUserPastes(ctx context.Context, id UserID) ([]PasteID, error)

	// LockPaste takes an advisory lock keyed by the paste ID and
	// returns the release function. Writers hold it across the whole
	// read-modify-commit sequence.
	LockPaste(ctx context.Context, id PasteID) (func(), error)

	// SweepExpired removes every paste whose expiry has passed and
	// returns what it removed.
	SweepExpired(ctx context.Context) ([]SweptPaste, error)
}

package service

import (
	"context"

	"howett.net/vellum"
	"howett.net/vellum/jobs"
)

// Auth carries whichever credential the routing layer resolved: an
// authenticated user, or the bearer secret of an anonymous paste's
// deletion key. The core never parses credentials itself.
type Auth struct {
	User        *vellum.UserID
	DeletionKey string
}

// authorizeMutation decides whether auth may mutate or destroy the
// paste: its author, or a valid deletion key when the paste is
// anonymous.
func (s *Service) authorizeMutation(ctx context.Context, paste *vellum.Paste, auth Auth) error {
	if denial := paste.CheckAccess(auth.User); denial != nil {
		return denial
	}

	if paste.Anonymous() {
		if auth.DeletionKey == "" {
			return vellum.ErrNotAllowed
		}
		ok, err := s.VerifyDeletionKey(ctx, paste.ID, auth.DeletionKey)
		if err != nil {
			return err
		}
		if !ok {
			return vellum.ErrNotAllowed
		}
		return nil
	}

	if auth.User == nil || *auth.User != *paste.AuthorID {
		return vellum.ErrNotAllowed
	}
	return nil
}

// DestroyPaste removes the paste and everything it owns. The database
// rows go first (file and deletion-key rows cascade); only then is the
// directory removed, so a failure can orphan disk but never leave a row
// pointing at nothing.
func (s *Service) DestroyPaste(ctx context.Context, id vellum.PasteID, auth Auth) error {
	unlock, err := s.lockPaste(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	paste, err := s.Provider.GetPaste(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(ctx, paste, auth); err != nil {
		return err
	}

	return s.destroyLocked(ctx, paste)
}

func (s *Service) destroyLocked(ctx context.Context, paste *vellum.Paste) error {
	if err := s.Provider.DestroyPaste(ctx, paste.ID); err != nil {
		return err
	}
	if err := s.Store.Destroy(paste.ID, paste.AuthorID); err != nil {
		// Wasted disk, not a correctness violation: nothing in the
		// database can reach this directory any more.
		s.Logger.WithField("paste", paste.ID).Error("orphaned paste directory: ", err)
	}
	return nil
}

// PurgeUserPastes enqueues the deletion of every paste a user owns;
// account removal flows run it before deleting the user row.
func (s *Service) PurgeUserPastes(ctx context.Context, id vellum.UserID) error {
	return s.Queue.Enqueue(ctx, jobs.Job{
		Class: "delete_all_pastes",
		Args:  []interface{}{id.String()},
	})
}

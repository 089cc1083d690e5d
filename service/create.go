package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
	"howett.net/vellum/jobs"
)

type FileSeed struct {
	Name     *string
	Language *string
	Content  []byte
}

type CreateRequest struct {
	Name        *string
	Description *string
	Visibility  vellum.Visibility
	AuthorID    *vellum.UserID
	ExpiresAt   *time.Time
	Files       []FileSeed

	// NotifyEmail, when set on an anonymous paste, asks for the
	// deletion key to be mailed out. Delivery happens through the job
	// queue; the core never sends mail.
	NotifyEmail *string
}

type CreateResult struct {
	Paste *vellum.Paste
	Files []vellum.File

	// DeletionKey is the plaintext secret; set only for anonymous
	// pastes, and never recoverable afterwards.
	DeletionKey string
}

func genericFileName(n int) string {
	return fmt.Sprintf("pastefile%d", n)
}

func classifyContent(content []byte) *bool {
	binary := !utf8.Valid(content)
	return &binary
}

// clampExpiry caps a requested expiry at the configured maximum
// lifetime. A zero maximum leaves requests uncapped.
func (s *Service) clampExpiry(requested *time.Time) *time.Time {
	if requested == nil {
		return nil
	}
	expiry := *requested
	if max := time.Duration(s.Limits.MaxExpiration); max > 0 {
		if ceiling := time.Now().Add(max); expiry.After(ceiling) {
			expiry = ceiling
		}
	}
	return &expiry
}

// CreatePaste validates the whole payload, then initializes the on-disk
// repository, writes blobs and rows (filesystem before the row that
// references it), mints a deletion key for anonymous pastes and records
// the creation as a single commit. Validation failures mutate nothing;
// later failures tear the partial paste back down.
func (s *Service) CreatePaste(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if ferr := s.validateCreate(req); ferr != nil {
		return nil, ferr
	}

	paste := &vellum.Paste{
		ID:         vellum.NewPasteID(),
		Visibility: req.Visibility,
		AuthorID:   req.AuthorID,
		ExpiresAt:  s.clampExpiry(req.ExpiresAt),
	}
	if req.Name != nil {
		name := normalizeName(*req.Name)
		paste.Name = &name
	}
	if req.Description != nil {
		description := normalizeName(*req.Description)
		paste.Description = &description
	}

	repo, err := s.Store.Init(paste.ID, paste.AuthorID)
	if err != nil {
		return nil, err
	}

	result, err := s.createInto(ctx, repo, paste, req)
	if err != nil {
		s.unwindCreate(ctx, paste)
		return nil, err
	}
	return result, nil
}

func (s *Service) createInto(ctx context.Context, repo *gitfs.Repo, paste *vellum.Paste, req *CreateRequest) (*CreateResult, error) {
	if err := s.Provider.CreatePaste(ctx, paste); err != nil {
		return nil, err
	}

	files := make([]vellum.File, 0, len(req.Files))
	for _, seed := range req.Files {
		var name string
		if seed.Name == nil {
			// One past the files already in the paste, same as the
			// patch engine.
			name = genericFileName(len(files) + 1)
		} else {
			name = normalizeName(*seed.Name)
		}

		file := vellum.File{
			ID:       vellum.NewFileID(),
			PasteID:  paste.ID,
			Name:     name,
			IsBinary: classifyContent(seed.Content),
			Language: seed.Language,
		}

		// Blob first: a crash here leaves an unreferenced blob, never
		// a row pointing at missing bytes.
		if err := repo.WriteBlob(file.ID, seed.Content); err != nil {
			return nil, err
		}
		if err := s.Provider.CreateFile(ctx, &file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	result := &CreateResult{Paste: paste, Files: files}
	if paste.Anonymous() {
		secret, err := s.issueDeletionKey(ctx, paste.ID)
		if err != nil {
			return nil, err
		}
		result.DeletionKey = secret

		if req.NotifyEmail != nil {
			err := s.Queue.Enqueue(ctx, jobs.Job{
				Class: "send_email",
				Args:  []interface{}{*req.NotifyEmail, "deletion_key", paste.ID.String()},
			})
			if err != nil {
				s.Logger.WithField("paste", paste.ID).Error("enqueueing deletion key email: ", err)
			}
		}
	}

	name, email := s.commitIdentity(ctx, paste.AuthorID)
	if err := repo.Commit(name, email, "create paste"); err != nil {
		return nil, err
	}
	return result, nil
}

// unwindCreate removes whatever a failed creation managed to write. Row
// deletion first; a directory that survives is wasted disk, not a
// dangling reference.
func (s *Service) unwindCreate(ctx context.Context, paste *vellum.Paste) {
	if err := s.Provider.DestroyPaste(ctx, paste.ID); err != nil && err != vellum.ErrNotFound {
		s.Logger.WithField("paste", paste.ID).Error("create unwind, row delete: ", err)
	}
	if err := s.Store.Destroy(paste.ID, paste.AuthorID); err != nil {
		s.Logger.WithField("paste", paste.ID).Error("create unwind, tree delete: ", err)
	}
}

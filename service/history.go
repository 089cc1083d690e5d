package service

import (
	"context"
	"time"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
)

// RevisionFile is one file's hunks within a revision. Name is resolved
// from the current rows; a file since deleted keeps its canonical ID as
// the display name.
type RevisionFile struct {
	FileID string       `json:"file_id"`
	Name   string       `json:"name"`
	Hunks  []gitfs.Hunk `json:"hunks"`
}

// Revision is one commit's worth of per-file diff hunks.
type Revision struct {
	Commit  string         `json:"commit"`
	Message string         `json:"message"`
	Time    time.Time      `json:"time"`
	Files   []RevisionFile `json:"files"`
}

// cachedRevision is the head-determined part of a revision: hashes,
// messages and hunks keyed by file ID. Display names stay out of the
// cache, since a rename rewrites rows without moving the head.
type cachedRevision struct {
	commit  string
	message string
	when    time.Time
	files   []gitfs.FileDiff
}

// History walks the paste's commit chain and reconstructs its revisions
// newest-first. The diff data for a given head never changes, so it is
// cached; concurrent builds of the same head are collapsed. File names
// are resolved from the current rows on every call.
func (s *Service) History(ctx context.Context, id vellum.PasteID, requester *vellum.UserID) ([]Revision, error) {
	paste, err := s.Provider.GetPaste(ctx, id)
	if err != nil {
		return nil, err
	}
	if denial := paste.CheckAccess(requester); denial != nil {
		return nil, denial
	}

	repo, err := s.Store.Open(id, paste.AuthorID)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, nil
	}

	files, err := s.Provider.GetPasteFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(files))
	for _, f := range files {
		names[f.ID.String()] = f.Name
	}

	cacheKey := id.String() + "@" + head
	s.revMu.Lock()
	if cached, ok := s.revCache.Get(cacheKey); ok {
		s.revMu.Unlock()
		return renderRevisions(cached.([]cachedRevision), names), nil
	}
	s.revMu.Unlock()

	built, err, _ := s.revGroup.Do(cacheKey, func() (interface{}, error) {
		revisions, err := buildRevisions(repo)
		if err != nil {
			return nil, err
		}
		s.revMu.Lock()
		s.revCache.Add(cacheKey, revisions)
		s.revMu.Unlock()
		return revisions, nil
	})
	if err != nil {
		return nil, err
	}
	return renderRevisions(built.([]cachedRevision), names), nil
}

func buildRevisions(repo *gitfs.Repo) ([]cachedRevision, error) {
	var revisions []cachedRevision
	err := repo.ForEachCommit(func(c gitfs.Commit) error {
		diffs, err := repo.Diff(c.Hash)
		if err != nil {
			return err
		}
		revisions = append(revisions, cachedRevision{
			commit:  c.Hash,
			message: c.Message,
			when:    c.When,
			files:   diffs,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revisions, nil
}

// renderRevisions attaches current file names to the cached diff data.
// A file whose row is gone keeps its canonical ID as the display name.
func renderRevisions(cached []cachedRevision, names map[string]string) []Revision {
	if cached == nil {
		return nil
	}
	revisions := make([]Revision, 0, len(cached))
	for _, c := range cached {
		rev := Revision{
			Commit:  c.commit,
			Message: c.message,
			Time:    c.when,
			Files:   make([]RevisionFile, 0, len(c.files)),
		}
		for _, d := range c.files {
			name, ok := names[d.Path]
			if !ok {
				name = d.Path
			}
			rev.Files = append(rev.Files, RevisionFile{
				FileID: d.Path,
				Name:   name,
				Hunks:  d.Hunks,
			})
		}
		revisions = append(revisions, rev)
	}
	return revisions
}

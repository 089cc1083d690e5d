// Package gitfs is the versioned file store: one directory per paste
// holding one blob per file, with the files directory itself a git
// repository so that every successful mutation is a commit.
package gitfs

import (
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"howett.net/vellum"
)

var (
	ErrRepoNotFound = errors.New("gitfs: repository not found")
	ErrRepoCorrupt  = errors.New("gitfs: repository corrupt")
	ErrBlobNotFound = errors.New("gitfs: blob not found")
)

const anonymousOwner = "anonymous"

// Store owns the on-disk layout
// <root>/<owner-or-"anonymous">/<paste-id>/files/<file-id>.
// Identifier path components are fixed-width hex with no separators, so
// no joined path can escape the root.
type Store struct {
	Root   string
	Logger logrus.FieldLogger
}

func New(root string, logger logrus.FieldLogger) *Store {
	return &Store{Root: root, Logger: logger}
}

func ownerComponent(author *vellum.UserID) string {
	if author == nil {
		return anonymousOwner
	}
	return author.String()
}

func (s *Store) pasteDir(id vellum.PasteID, author *vellum.UserID) string {
	return filepath.Join(s.Root, ownerComponent(author), id.String())
}

func (s *Store) filesDir(id vellum.PasteID, author *vellum.UserID) string {
	return filepath.Join(s.pasteDir(id, author), "files")
}

// Init creates the paste's directory tree and an empty repository.
func (s *Store) Init(id vellum.PasteID, author *vellum.UserID) (*Repo, error) {
	dir := s.filesDir(id, author)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "gitfs: creating paste directory")
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, errors.Wrap(err, "gitfs: initializing repository")
	}

	return &Repo{dir: dir, repo: repo}, nil
}

// Open returns a handle to an existing paste repository.
func (s *Store) Open(id vellum.PasteID, author *vellum.UserID) (*Repo, error) {
	dir := s.filesDir(id, author)
	repo, err := git.PlainOpen(dir)
	if err == git.ErrRepositoryNotExists {
		return nil, ErrRepoNotFound
	}
	if err != nil {
		return nil, errors.Wrap(ErrRepoCorrupt, err.Error())
	}
	return &Repo{dir: dir, repo: repo}, nil
}

// Destroy removes the paste's entire directory tree, repository
// included.
func (s *Store) Destroy(id vellum.PasteID, author *vellum.UserID) error {
	err := os.RemoveAll(s.pasteDir(id, author))
	return errors.Wrap(err, "gitfs: removing paste directory")
}

// Repo is the handle to one paste's files directory and its repository.
// It is not internally synchronized; callers hold the paste's advisory
// lock across mutations.
type Repo struct {
	dir  string
	repo *git.Repository
}

func (r *Repo) blobPath(id vellum.FileID) string {
	return filepath.Join(r.dir, id.String())
}

// WriteBlob creates or replaces the blob for a file. The worktree is
// left dirty; nothing is committed.
func (r *Repo) WriteBlob(id vellum.FileID, content []byte) error {
	err := os.WriteFile(r.blobPath(id), content, 0o644)
	return errors.Wrap(err, "gitfs: writing blob")
}

func (r *Repo) ReadBlob(id vellum.FileID) ([]byte, error) {
	b, err := os.ReadFile(r.blobPath(id))
	if os.IsNotExist(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "gitfs: reading blob")
	}
	return b, nil
}

func (r *Repo) DeleteBlob(id vellum.FileID) error {
	err := os.Remove(r.blobPath(id))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "gitfs: deleting blob")
}

// IsDirty reports whether the worktree differs from HEAD (or is
// non-empty with no commits yet).
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, errors.Wrap(err, "gitfs: opening worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return false, errors.Wrap(err, "gitfs: reading status")
	}
	return !status.IsClean(), nil
}

// Commit stages every change and commits it with the given author. A
// clean worktree is a successful no-op, which makes mutation retries
// idempotent: rewriting identical blobs produces no new commit.
func (r *Repo) Commit(authorName, authorEmail, message string) error {
	dirty, err := r.IsDirty()
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "gitfs: opening worktree")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, "gitfs: staging changes")
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	return errors.Wrap(err, "gitfs: committing")
}

// Head returns the hash of the current head commit, or "" for a
// repository with no commits.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		// An unborn HEAD is normal for a freshly-initialized
		// repository.
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(ErrRepoCorrupt, err.Error())
	}
	return ref.Hash().String(), nil
}

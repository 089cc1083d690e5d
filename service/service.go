// Package service orchestrates the dual write between the relational
// provider and the versioned file store: paste creation, batched file
// updates, deletion cascades and revision history.
package service

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
	"howett.net/vellum/jobs"
)

const revisionCacheEntries = 128

type Service struct {
	Provider vellum.Provider
	Store    *gitfs.Store
	Queue    jobs.Queue
	Logger   logrus.FieldLogger
	Limits   vellum.Limits

	mu    sync.Mutex
	locks map[vellum.PasteID]*sync.Mutex

	revMu    sync.Mutex
	revCache *lru.Cache
	revGroup singleflight.Group
}

func New(provider vellum.Provider, store *gitfs.Store, queue jobs.Queue, logger logrus.FieldLogger, limits vellum.Limits) *Service {
	if queue == nil {
		queue = jobs.Discard{}
	}
	return &Service{
		Provider: provider,
		Store:    store,
		Queue:    queue,
		Logger:   logger,
		Limits:   limits,
		locks:    make(map[vellum.PasteID]*sync.Mutex),
		revCache: lru.New(revisionCacheEntries),
	}
}

// lockPaste serializes the whole read-modify-commit sequence for one
// paste: an in-process mutex for the worktree plus the provider's
// advisory lock for other processes sharing the database.
func (s *Service) lockPaste(ctx context.Context, id vellum.PasteID) (func(), error) {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()

	release, err := s.Provider.LockPaste(ctx, id)
	if err != nil {
		m.Unlock()
		return nil, err
	}

	return func() {
		release()
		m.Unlock()
	}, nil
}

// commitIdentity derives the repository author for a mutation.
func (s *Service) commitIdentity(ctx context.Context, author *vellum.UserID) (string, string) {
	if author == nil {
		return "anonymous", "anonymous@vellum.invalid"
	}
	name := author.String()
	if u, err := s.Provider.GetUser(ctx, *author); err == nil {
		name = u.Name
	}
	return name, author.String() + "@users.vellum.invalid"
}

// commitIfDirty asks the repository to record one revision covering the
// changes made so far; a clean tree is a no-op so history only grows
// when content actually changed.
func (s *Service) commitIfDirty(ctx context.Context, repo *gitfs.Repo, author *vellum.UserID, message string) error {
	name, email := s.commitIdentity(ctx, author)
	return repo.Commit(name, email, message)
}

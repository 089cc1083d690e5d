package service

import (
	"context"
	"sync"
	"time"

	"howett.net/vellum"
	"howett.net/vellum/jobs"
)

// memProvider keeps the relational state in maps: pastes keyed by ID,
// files in insertion order per paste, one deletion key per paste. The
// (paste, name) uniqueness constraint is enforced the way the schema
// would, so duplicate-name behavior matches a real database.
type memProvider struct {
	mu     sync.Mutex
	seq    int64
	pastes map[vellum.PasteID]*vellum.Paste
	files  map[vellum.PasteID][]*vellum.File
	keys   map[vellum.PasteID]*vellum.DeletionKey
	users  map[vellum.UserID]*vellum.User
}

func newMemProvider() *memProvider {
	return &memProvider{
		pastes: make(map[vellum.PasteID]*vellum.Paste),
		files:  make(map[vellum.PasteID][]*vellum.File),
		keys:   make(map[vellum.PasteID]*vellum.DeletionKey),
		users:  make(map[vellum.UserID]*vellum.User),
	}
}

func duplicateNameError() error {
	return &vellum.FieldError{
		Code:    vellum.CodeDuplicateFileNames,
		Field:   "name",
		Message: "duplicate file name",
	}
}

func (m *memProvider) CreatePaste(_ context.Context, p *vellum.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now()
	stored := *p
	m.pastes[p.ID] = &stored
	return nil
}

func (m *memProvider) GetPaste(_ context.Context, id vellum.PasteID) (*vellum.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[id]
	if !ok {
		return nil, vellum.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memProvider) UpdatePaste(_ context.Context, p *vellum.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[p.ID]; !ok {
		return vellum.ErrNotFound
	}
	stored := *p
	m.pastes[p.ID] = &stored
	return nil
}

func (m *memProvider) TouchPaste(_ context.Context, id vellum.PasteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[id]
	if !ok {
		return vellum.ErrNotFound
	}
	now := time.Now()
	p.UpdatedAt = &now
	return nil
}

func (m *memProvider) DestroyPaste(_ context.Context, id vellum.PasteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[id]; !ok {
		return vellum.ErrNotFound
	}
	delete(m.pastes, id)
	delete(m.files, id)
	delete(m.keys, id)
	return nil
}

func (m *memProvider) CreateFile(_ context.Context, f *vellum.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.files[f.PasteID] {
		if existing.Name == f.Name {
			return duplicateNameError()
		}
	}
	m.seq++
	f.Seq = m.seq
	f.CreatedAt = time.Now()
	stored := *f
	m.files[f.PasteID] = append(m.files[f.PasteID], &stored)
	return nil
}

func (m *memProvider) GetFile(_ context.Context, id vellum.FileID) (*vellum.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, files := range m.files {
		for _, f := range files {
			if f.ID == id {
				copied := *f
				return &copied, nil
			}
		}
	}
	return nil, vellum.ErrNotFound
}

func (m *memProvider) GetPasteFiles(_ context.Context, id vellum.PasteID) ([]vellum.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]vellum.File, 0, len(m.files[id]))
	for _, f := range m.files[id] {
		files = append(files, *f)
	}
	return files, nil
}

func (m *memProvider) UpdateFile(_ context.Context, f *vellum.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.files[f.PasteID] {
		if existing.ID != f.ID && existing.Name == f.Name {
			return duplicateNameError()
		}
	}
	for i, existing := range m.files[f.PasteID] {
		if existing.ID == f.ID {
			stored := *f
			stored.Seq = existing.Seq
			stored.CreatedAt = existing.CreatedAt
			m.files[f.PasteID][i] = &stored
			return nil
		}
	}
	return vellum.ErrNotFound
}

func (m *memProvider) DestroyFile(_ context.Context, id vellum.FileID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pid, files := range m.files {
		for i, f := range files {
			if f.ID == id {
				m.files[pid] = append(files[:i:i], files[i+1:]...)
				return nil
			}
		}
	}
	return vellum.ErrNotFound
}

func (m *memProvider) CountPasteFiles(_ context.Context, id vellum.PasteID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files[id]), nil
}

func (m *memProvider) CreateDeletionKey(_ context.Context, k *vellum.DeletionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k.CreatedAt = time.Now()
	stored := *k
	m.keys[k.PasteID] = &stored
	return nil
}

func (m *memProvider) GetDeletionKey(_ context.Context, id vellum.PasteID) (*vellum.DeletionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[id]
	if !ok {
		return nil, vellum.ErrNotFound
	}
	copied := *k
	return &copied, nil
}

func (m *memProvider) GetUser(_ context.Context, id vellum.UserID) (*vellum.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, vellum.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memProvider) GetUserPastes(_ context.Context, id vellum.UserID) ([]vellum.PasteID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []vellum.PasteID
	for _, p := range m.pastes {
		if p.AuthorID != nil && *p.AuthorID == id {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (m *memProvider) LockPaste(context.Context, vellum.PasteID) (func(), error) {
	return func() {}, nil
}

func (m *memProvider) SweepExpired(_ context.Context) ([]vellum.SweptPaste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var swept []vellum.SweptPaste
	for id, p := range m.pastes {
		if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			swept = append(swept, vellum.SweptPaste{ID: id, AuthorID: p.AuthorID})
			delete(m.pastes, id)
			delete(m.files, id)
			delete(m.keys, id)
		}
	}
	return swept, nil
}

// memQueue records enqueued jobs.
type memQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *memQueue) Enqueue(_ context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

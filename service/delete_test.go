package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
)

func TestDestroyPasteWithDeletionKey(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")

	err := s.DestroyPaste(ctx, fixture.Paste.ID, Auth{DeletionKey: "wrong"})
	if !errors.Is(err, vellum.ErrNotAllowed) {
		t.Fatalf("wrong key: %v", err)
	}

	if err := s.DestroyPaste(ctx, fixture.Paste.ID, fixture.auth()); err != nil {
		t.Fatal(err)
	}

	if _, err := provider.GetPaste(ctx, fixture.Paste.ID); !errors.Is(err, vellum.ErrNotFound) {
		t.Fatalf("paste row lookup: %v", err)
	}
	if _, err := s.Store.Open(fixture.Paste.ID, nil); !errors.Is(err, gitfs.ErrRepoNotFound) {
		t.Fatalf("repository open: %v", err)
	}
}

func TestDestroyPasteAuthorOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	author, stranger := vellum.NewUserID(), vellum.NewUserID()

	result, err := s.CreatePaste(ctx, &CreateRequest{
		Visibility: vellum.VisibilityUnlisted,
		AuthorID:   &author,
		Files:      []FileSeed{{Content: []byte("mine\n")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DestroyPaste(ctx, result.Paste.ID, Auth{User: &stranger}); !errors.Is(err, vellum.ErrNotAllowed) {
		t.Fatalf("stranger: %v", err)
	}
	if err := s.DestroyPaste(ctx, result.Paste.ID, Auth{}); !errors.Is(err, vellum.ErrNotAllowed) {
		t.Fatalf("no credential: %v", err)
	}
	if err := s.DestroyPaste(ctx, result.Paste.ID, Auth{User: &author}); err != nil {
		t.Fatal(err)
	}
}

func TestDestroyMissingPaste(t *testing.T) {
	s, _ := newTestService(t)

	err := s.DestroyPaste(context.Background(), vellum.NewPasteID(), Auth{})
	if !errors.Is(err, vellum.ErrNotFound) {
		t.Fatalf("missing paste: %v", err)
	}
}

func TestVerifyDeletionKeyNoKey(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	author := vellum.NewUserID()

	result, err := s.CreatePaste(ctx, &CreateRequest{
		Visibility: vellum.VisibilityPublic,
		AuthorID:   &author,
		Files:      []FileSeed{{Content: []byte("x")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Authored pastes have no key; verification is a clean false, not
	// an error.
	ok, err := s.VerifyDeletionKey(ctx, result.Paste.ID, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("verification succeeded against no key")
	}
}

func TestPurgeUserPastesEnqueues(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	queue := &memQueue{}
	s := New(newMemProvider(), gitfs.New(t.TempDir(), log), queue, log, vellum.DefaultLimits())

	id := vellum.NewUserID()
	if err := s.PurgeUserPastes(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("enqueued %d jobs", len(queue.jobs))
	}
	if queue.jobs[0].Class != "delete_all_pastes" {
		t.Fatalf("job class %q", queue.jobs[0].Class)
	}
	if len(queue.jobs[0].Args) != 1 || queue.jobs[0].Args[0] != id.String() {
		t.Fatalf("job args %v", queue.jobs[0].Args)
	}
}

package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
)

func createFixture(t *testing.T, s *Service, names ...string) *CreateResult {
	t.Helper()
	seeds := make([]FileSeed, 0, len(names))
	for _, name := range names {
		n := name
		seeds = append(seeds, FileSeed{Name: &n, Content: []byte(name + " content\n")})
	}
	result, err := s.CreatePaste(context.Background(), &CreateRequest{
		Visibility: vellum.VisibilityUnlisted,
		Files:      seeds,
	})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func (r *CreateResult) auth() Auth {
	return Auth{DeletionKey: r.DeletionKey}
}

func TestUpdatePasteEmptyBatch(t *testing.T) {
	s, _ := newTestService(t)
	fixture := createFixture(t, s, "a.txt")

	_, err := s.UpdatePaste(context.Background(), fixture.Paste.ID, fixture.auth(), nil)
	var ferr *vellum.FieldError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected a field error, got %v", err)
	}
	if ferr.Code != vellum.CodeEmptyPatch {
		t.Fatalf("error code %q", ferr.Code)
	}
	if ferr.Message != "array cannot be empty" {
		t.Fatalf("error message %q", ferr.Message)
	}
}

func TestUpdatePasteEditRecordsRevision(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")
	fileID := fixture.Files[0].ID

	result, err := s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &fileID, Content: []byte("rewritten\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.PasteDeleted {
		t.Fatal("edit deleted the paste")
	}

	repo, err := s.Store.Open(fixture.Paste.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	content, err := repo.ReadBlob(fileID)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "rewritten\n" {
		t.Fatalf("blob content %q", content)
	}

	commits := listCommits(t, repo)
	if len(commits) != 2 {
		t.Fatalf("edit recorded %d commits", len(commits))
	}
	if !strings.HasPrefix(commits[0].Message, "update paste") {
		t.Fatalf("edit commit message %q", commits[0].Message)
	}

	paste, err := s.Provider.GetPaste(ctx, fixture.Paste.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paste.UpdatedAt == nil {
		t.Fatal("edit did not touch updated_at")
	}
}

func TestUpdatePasteRenameAndLanguage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")
	fileID := fixture.Files[0].ID

	result, err := s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &fileID, Name: str("renamed.go"), Language: str("go")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Files[0].Name != "renamed.go" {
		t.Fatalf("file name %q after rename", result.Files[0].Name)
	}
	if result.Files[0].Language == nil || *result.Files[0].Language != "go" {
		t.Fatal("language not set")
	}

	// Content untouched: renaming alone must not rewrite the blob.
	repo, err := s.Store.Open(fixture.Paste.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	content, err := repo.ReadBlob(fileID)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "a.txt content\n" {
		t.Fatalf("blob content %q after rename", content)
	}

	result, err = s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &fileID, ClearLanguage: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Files[0].Language != nil {
		t.Fatal("language not cleared")
	}
}

func TestUpdatePasteAddsFileWithGenericName(t *testing.T) {
	s, _ := newTestService(t)
	fixture := createFixture(t, s, "a.txt")

	result, err := s.UpdatePaste(context.Background(), fixture.Paste.ID, fixture.auth(), []FilePatch{
		{Content: []byte("new file\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(result.Files))
	}
	if result.Files[1].Name != "pastefile2" {
		t.Fatalf("added file named %q", result.Files[1].Name)
	}
}

func TestUpdatePasteBatchRejectionMutatesNothing(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")
	fileID := fixture.Files[0].ID
	missing := vellum.NewFileID()

	cases := []struct {
		name    string
		patches []FilePatch
		code    string
	}{
		{
			name: "missing file after valid update",
			patches: []FilePatch{
				{ID: &fileID, Content: []byte("should not land\n")},
				{ID: &missing, Content: []byte("x")},
			},
			code: vellum.CodeMissingFile,
		},
		{
			name: "empty replacement content",
			patches: []FilePatch{
				{ID: &fileID, Content: []byte{}},
			},
			code: vellum.CodeEmptyFileContent,
		},
		{
			name: "new file without content",
			patches: []FilePatch{
				{Name: str("b.txt")},
			},
			code: vellum.CodeNewFileNeedsContent,
		},
		{
			name: "rename collides with new file",
			patches: []FilePatch{
				{ID: &fileID, Name: str("b.txt"), Content: []byte("should not land\n")},
				{Name: str("b.txt"), Content: []byte("x")},
			},
			code: vellum.CodeDuplicateFileNames,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), c.patches)
			var ferr *vellum.FieldError
			if !errors.As(err, &ferr) {
				t.Fatalf("expected a field error, got %v", err)
			}
			if ferr.Code != c.code {
				t.Fatalf("error code %q, want %q", ferr.Code, c.code)
			}

			// The valid leading entries must not have landed either.
			repo, err := s.Store.Open(fixture.Paste.ID, nil)
			if err != nil {
				t.Fatal(err)
			}
			content, err := repo.ReadBlob(fileID)
			if err != nil {
				t.Fatal(err)
			}
			if string(content) != "a.txt content\n" {
				t.Fatalf("rejected batch mutated blob to %q", content)
			}
			commits := listCommits(t, repo)
			if len(commits) != 1 {
				t.Fatalf("rejected batch recorded %d commits", len(commits))
			}
			files, err := s.Provider.GetPasteFiles(ctx, fixture.Paste.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(files) != 1 || files[0].Name != "a.txt" {
				t.Fatalf("rejected batch mutated rows: %+v", files)
			}
		})
	}
}

func TestUpdatePasteRemoveOneFile(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt", "b.txt")
	removeID := fixture.Files[1].ID

	result, err := s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &removeID, Remove: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.PasteDeleted {
		t.Fatal("removing one of two files deleted the paste")
	}
	if len(result.Files) != 1 || result.Files[0].Name != "a.txt" {
		t.Fatalf("surviving files: %+v", result.Files)
	}

	repo, err := s.Store.Open(fixture.Paste.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ReadBlob(removeID); !errors.Is(err, gitfs.ErrBlobNotFound) {
		t.Fatalf("removed blob read: %v", err)
	}
	commits := listCommits(t, repo)
	if len(commits) != 2 {
		t.Fatalf("removal recorded %d commits", len(commits))
	}
	if !strings.HasPrefix(commits[0].Message, "delete file") {
		t.Fatalf("removal commit message %q", commits[0].Message)
	}
}

func TestUpdatePasteRenameSwapViaRemoval(t *testing.T) {
	s, _ := newTestService(t)
	fixture := createFixture(t, s, "a.txt", "b.txt")
	keepID, removeID := fixture.Files[0].ID, fixture.Files[1].ID

	// Renaming onto a name freed by a removal in the same batch works
	// because removals apply first.
	result, err := s.UpdatePaste(context.Background(), fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &keepID, Name: str("b.txt")},
		{ID: &removeID, Remove: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 || result.Files[0].Name != "b.txt" {
		t.Fatalf("surviving files: %+v", result.Files)
	}
}

func TestUpdatePasteRemoveLastFileDeletesPaste(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")
	fileID := fixture.Files[0].ID

	result, err := s.UpdatePaste(ctx, fixture.Paste.ID, fixture.auth(), []FilePatch{
		{ID: &fileID, Remove: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.PasteDeleted {
		t.Fatal("removing the last file did not delete the paste")
	}

	if _, err := provider.GetPaste(ctx, fixture.Paste.ID); !errors.Is(err, vellum.ErrNotFound) {
		t.Fatalf("paste row lookup: %v", err)
	}
	if _, err := provider.GetDeletionKey(ctx, fixture.Paste.ID); !errors.Is(err, vellum.ErrNotFound) {
		t.Fatalf("deletion key lookup: %v", err)
	}
	if _, err := s.Store.Open(fixture.Paste.ID, nil); !errors.Is(err, gitfs.ErrRepoNotFound) {
		t.Fatalf("repository open: %v", err)
	}
	if _, err := os.Stat(s.Store.Root); err != nil {
		t.Fatalf("store root: %v", err)
	}
}

func TestUpdatePasteRequiresAuthorization(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fixture := createFixture(t, s, "a.txt")
	fileID := fixture.Files[0].ID

	patches := []FilePatch{{ID: &fileID, Content: []byte("nope\n")}}

	if _, err := s.UpdatePaste(ctx, fixture.Paste.ID, Auth{}, patches); !errors.Is(err, vellum.ErrNotAllowed) {
		t.Fatalf("no credential: %v", err)
	}
	if _, err := s.UpdatePaste(ctx, fixture.Paste.ID, Auth{DeletionKey: "wrong"}, patches); !errors.Is(err, vellum.ErrNotAllowed) {
		t.Fatalf("wrong deletion key: %v", err)
	}
}

package service

import (
	"context"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
)

// FilePatch is one entry in an update batch.
//
// A nil ID creates a new file (Content required). For existing files,
// Content == nil leaves the bytes alone, Remove deletes the file, and a
// non-nil Content replaces them. Language is tri-state the same way:
// nil leaves it, ClearLanguage removes it.
type FilePatch struct {
	ID            *vellum.FileID
	Name          *string
	Language      *string
	ClearLanguage bool
	Content       []byte
	Remove        bool
}

type PatchResult struct {
	Paste *vellum.Paste
	Files []vellum.File

	// PasteDeleted is set when the batch removed the last file, which
	// cascades into deleting the paste itself.
	PasteDeleted bool
}

// UpdatePaste applies a batch of file changes as one revision. The
// whole batch is validated against current state before anything is
// written; removals are applied first, so a rename onto a name freed by
// a removal in the same batch never trips the uniqueness constraint. A
// filesystem failure partway through the apply loop leaves partial
// state behind; re-running the same batch converges, since identical
// blobs make the final commit a no-op.
func (s *Service) UpdatePaste(ctx context.Context, id vellum.PasteID, auth Auth, patches []FilePatch) (*PatchResult, error) {
	if len(patches) == 0 {
		return nil, fieldError(vellum.CodeEmptyPatch, "files", "array cannot be empty")
	}

	unlock, err := s.lockPaste(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	paste, err := s.Provider.GetPaste(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(ctx, paste, auth); err != nil {
		return nil, err
	}

	files, err := s.Provider.GetPasteFiles(ctx, id)
	if err != nil {
		return nil, err
	}

	ordered, err := s.validatePatch(patches, files)
	if err != nil {
		return nil, err
	}

	repo, err := s.Store.Open(id, paste.AuthorID)
	if err != nil {
		return nil, err
	}

	return s.applyPatch(ctx, repo, paste, files, ordered)
}

// validatePatch checks the entire batch against current rows and
// returns it reordered with removals first. A non-nil error here means
// nothing has been mutated.
func (s *Service) validatePatch(patches []FilePatch, files []vellum.File) ([]FilePatch, error) {
	byID := make(map[vellum.FileID]*vellum.File, len(files))
	for i := range files {
		byID[files[i].ID] = &files[i]
	}

	// The post-batch name of every surviving file.
	finalNames := make(map[vellum.FileID]string, len(files))
	for _, f := range files {
		finalNames[f.ID] = f.Name
	}

	var updates, removals []FilePatch
	var newNames []string
	generic := 0
	for _, patch := range patches {
		if patch.ID != nil {
			if _, ok := byID[*patch.ID]; !ok {
				return nil, fieldError(vellum.CodeMissingFile, "files", "no such file in this paste")
			}
			if patch.Remove {
				delete(finalNames, *patch.ID)
				removals = append(removals, patch)
				continue
			}
			if patch.Content != nil && len(patch.Content) == 0 {
				return nil, fieldError(vellum.CodeEmptyFileContent, "files", "file content must not be empty")
			}
			if patch.Name != nil {
				name := normalizeName(*patch.Name)
				if err := s.validateFileName(name); err != nil {
					return nil, err
				}
				finalNames[*patch.ID] = name
			}
			updates = append(updates, patch)
			continue
		}

		// New file.
		if patch.Remove {
			return nil, fieldError(vellum.CodeMissingFile, "files", "cannot remove a file without an id")
		}
		if patch.Content == nil {
			return nil, fieldError(vellum.CodeNewFileNeedsContent, "files", "new files must have content")
		}
		if len(patch.Content) == 0 {
			return nil, fieldError(vellum.CodeEmptyFileContent, "files", "file content must not be empty")
		}
		if patch.Name != nil {
			name := normalizeName(*patch.Name)
			if err := s.validateFileName(name); err != nil {
				return nil, err
			}
			newNames = append(newNames, name)
		} else {
			generic++
			newNames = append(newNames, genericFileName(len(files)+generic))
		}
		updates = append(updates, patch)
	}

	seen := make(map[string]bool, len(finalNames)+len(newNames))
	for _, name := range finalNames {
		if seen[name] {
			return nil, fieldError(vellum.CodeDuplicateFileNames, "files", "duplicate file name")
		}
		seen[name] = true
	}
	for _, name := range newNames {
		if seen[name] {
			return nil, fieldError(vellum.CodeDuplicateFileNames, "files", "duplicate file name")
		}
		seen[name] = true
	}

	return append(removals, updates...), nil
}

func (s *Service) applyPatch(ctx context.Context, repo *gitfs.Repo, paste *vellum.Paste, files []vellum.File, ordered []FilePatch) (*PatchResult, error) {
	byID := make(map[vellum.FileID]*vellum.File, len(files))
	for i := range files {
		byID[files[i].ID] = &files[i]
	}

	count := len(files)
	generic := 0
	onlyRemovals := true
	for _, patch := range ordered {
		switch {
		case patch.ID != nil && patch.Remove:
			if err := s.Provider.DestroyFile(ctx, *patch.ID); err != nil {
				return nil, err
			}
			if err := repo.DeleteBlob(*patch.ID); err != nil {
				return nil, err
			}
			delete(byID, *patch.ID)
			count--

		case patch.ID != nil:
			onlyRemovals = false
			file := byID[*patch.ID]
			if patch.Content != nil {
				if err := repo.WriteBlob(file.ID, patch.Content); err != nil {
					return nil, err
				}
				file.IsBinary = classifyContent(patch.Content)
			}
			if patch.Name != nil {
				file.Name = normalizeName(*patch.Name)
			}
			if patch.ClearLanguage {
				file.Language = nil
			} else if patch.Language != nil {
				file.Language = patch.Language
			}
			if err := s.Provider.UpdateFile(ctx, file); err != nil {
				return nil, err
			}

		default:
			onlyRemovals = false
			var name string
			if patch.Name != nil {
				name = normalizeName(*patch.Name)
			} else {
				generic++
				name = genericFileName(len(files) + generic)
			}
			file := vellum.File{
				ID:       vellum.NewFileID(),
				PasteID:  paste.ID,
				Name:     name,
				IsBinary: classifyContent(patch.Content),
				Language: patch.Language,
			}
			if err := repo.WriteBlob(file.ID, patch.Content); err != nil {
				return nil, err
			}
			if err := s.Provider.CreateFile(ctx, &file); err != nil {
				return nil, err
			}
			byID[file.ID] = &file
			count++
		}
	}

	// Deleting the last file deletes the paste.
	if count == 0 {
		if err := s.destroyLocked(ctx, paste); err != nil {
			return nil, err
		}
		return &PatchResult{Paste: paste, PasteDeleted: true}, nil
	}

	message := "update paste"
	if onlyRemovals {
		message = "delete file"
	}
	if err := s.commitIfDirty(ctx, repo, paste.AuthorID, message); err != nil {
		return nil, err
	}
	if err := s.Provider.TouchPaste(ctx, paste.ID); err != nil {
		return nil, err
	}

	remaining, err := s.Provider.GetPasteFiles(ctx, paste.ID)
	if err != nil {
		return nil, err
	}
	return &PatchResult{Paste: paste, Files: remaining}, nil
}

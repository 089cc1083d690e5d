package service

import (
	"context"
	"encoding/base64"
	"unicode/utf8"

	"howett.net/vellum"
	"howett.net/vellum/gitfs"
)

// OutputFile is a file prepared for display: text content as UTF-8,
// binary content as base64. Corrupt marks a row recorded as text whose
// stored bytes no longer decode; the caller may degrade to binary
// display.
type OutputFile struct {
	ID       vellum.FileID `json:"id"`
	Name     string        `json:"name"`
	Language *string       `json:"language,omitempty"`
	Binary   bool          `json:"binary"`
	Content  string        `json:"content,omitempty"`
	Corrupt  bool          `json:"corrupt,omitempty"`
}

type PasteView struct {
	Paste vellum.Paste `json:"paste"`
	Files []OutputFile `json:"files"`
}

// GetPaste resolves a paste through the access gate and returns its
// files, with blob content when withContent is set.
func (s *Service) GetPaste(ctx context.Context, id vellum.PasteID, requester *vellum.UserID, withContent bool) (*PasteView, error) {
	paste, err := s.Provider.GetPaste(ctx, id)
	if err != nil {
		return nil, err
	}
	if denial := paste.CheckAccess(requester); denial != nil {
		return nil, denial
	}

	files, err := s.Provider.GetPasteFiles(ctx, id)
	if err != nil {
		return nil, err
	}

	var repo *gitfs.Repo
	if withContent {
		repo, err = s.Store.Open(id, paste.AuthorID)
		if err != nil {
			return nil, err
		}
	}

	view := &PasteView{Paste: *paste, Files: make([]OutputFile, 0, len(files))}
	for i := range files {
		out, err := s.outputFile(repo, &files[i], withContent)
		if err != nil {
			return nil, err
		}
		view.Files = append(view.Files, *out)
	}
	return view, nil
}

func (s *Service) outputFile(repo *gitfs.Repo, f *vellum.File, withContent bool) (*OutputFile, error) {
	out := &OutputFile{
		ID:       f.ID,
		Name:     f.Name,
		Language: f.Language,
		Binary:   f.Binary(),
	}
	if !withContent {
		return out, nil
	}

	content, err := repo.ReadBlob(f.ID)
	if err != nil {
		return nil, err
	}

	if f.Binary() {
		out.Content = base64.StdEncoding.EncodeToString(content)
		return out, nil
	}

	if !utf8.Valid(content) {
		// The row says text but the blob no longer decodes. Report
		// it and fall back to binary display rather than failing the
		// whole read.
		s.Logger.WithField("file", f.ID).Warning("text file failed UTF-8 validation; flagging as corrupt")
		out.Binary = true
		out.Corrupt = true
		out.Content = base64.StdEncoding.EncodeToString(content)
		return out, nil
	}

	out.Content = string(content)
	return out, nil
}

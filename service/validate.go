package service

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"howett.net/vellum"
)

// normalizeName is applied to every user-supplied name before storage
// and uniqueness comparison, so that visually identical names cannot
// coexist.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}

func fieldError(code, field, message string) *vellum.FieldError {
	return &vellum.FieldError{Code: code, Field: field, Message: message}
}

func (s *Service) validatePasteName(name *string) *vellum.FieldError {
	if name == nil {
		return nil
	}
	if len(*name) > s.Limits.PasteNameBytes {
		return fieldError(vellum.CodeNameTooLong, "name", "name too long")
	}
	if uniseg.GraphemeClusterCount(*name) > s.Limits.PasteNameGraphemes {
		return fieldError(vellum.CodeNameTooLong, "name", "name too long")
	}
	return nil
}

func (s *Service) validateDescription(description *string) *vellum.FieldError {
	if description == nil {
		return nil
	}
	if len(*description) > s.Limits.DescriptionBytes {
		return fieldError(vellum.CodeDescriptionTooLong, "description", "description too long")
	}
	if uniseg.GraphemeClusterCount(*description) > s.Limits.DescriptionGraphemes {
		return fieldError(vellum.CodeDescriptionTooLong, "description", "description too long")
	}
	return nil
}

func (s *Service) validateFileName(name string) *vellum.FieldError {
	if name == "" || name == "." || name == ".." {
		return fieldError(vellum.CodeInvalidFileName, "files", "invalid file name")
	}
	if strings.ContainsAny(name, `/\`) {
		return fieldError(vellum.CodeInvalidFileName, "files", "file names must not contain path separators")
	}
	if len(name) > s.Limits.FileNameBytes {
		return fieldError(vellum.CodeFileNameTooLong, "files", "file name too long")
	}
	return nil
}

// validateCreate checks a creation payload in full before any mutation;
// a non-nil result means nothing was written anywhere.
func (s *Service) validateCreate(req *CreateRequest) *vellum.FieldError {
	if len(req.Files) == 0 {
		return fieldError(vellum.CodeNoFiles, "files", "at least one file is required")
	}
	if req.Visibility == vellum.VisibilityPrivate && req.AuthorID == nil {
		return fieldError(vellum.CodeAnonymousPrivate, "visibility", "anonymous pastes cannot be private")
	}
	if err := s.validatePasteName(req.Name); err != nil {
		return err
	}
	if err := s.validateDescription(req.Description); err != nil {
		return err
	}

	names := make(map[string]bool, len(req.Files))
	for i, f := range req.Files {
		if len(f.Content) == 0 {
			return fieldError(vellum.CodeEmptyFileContent, "files", "file content must not be empty")
		}

		var name string
		if f.Name == nil {
			// Unnamed files take the name their position dictates: one
			// past the files created before them.
			name = genericFileName(i + 1)
		} else {
			name = normalizeName(*f.Name)
			if err := s.validateFileName(name); err != nil {
				return err
			}
		}
		if names[name] {
			return fieldError(vellum.CodeDuplicateFileNames, "files", "duplicate file name")
		}
		names[name] = true
	}
	return nil
}

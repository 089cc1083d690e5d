package gitfs

import (
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

// Commit is one entry in a repository's first-parent history.
type Commit struct {
	Hash    string
	Message string
	When    time.Time
}

// Hunk groups a diff header line with the added/removed/context lines
// that follow it.
type Hunk struct {
	Header string
	Lines  string
}

// FileDiff is one file's worth of hunks within a single commit. Path is
// the blob's name in the worktree, i.e. the canonical file ID.
type FileDiff struct {
	Path  string
	Hunks []Hunk
}

// ForEachCommit walks the first-parent chain from HEAD back to the root
// commit, newest first. An empty repository walks nothing. The walk is
// lazy; returning an error from fn stops it.
func (r *Repo) ForEachCommit(fn func(Commit) error) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if head == "" {
		return nil
	}

	c, err := r.repo.CommitObject(plumbing.NewHash(head))
	if err != nil {
		return errors.Wrap(ErrRepoCorrupt, err.Error())
	}

	for {
		err := fn(Commit{
			Hash:    c.Hash.String(),
			Message: c.Message,
			When:    c.Author.When,
		})
		if err != nil {
			return err
		}

		if c.NumParents() == 0 {
			return nil
		}
		c, err = c.Parent(0)
		if err != nil {
			return errors.Wrap(ErrRepoCorrupt, err.Error())
		}
	}
}

// Diff reconstructs the per-file hunks for one commit against its first
// parent; the root commit diffs against the empty tree.
func (r *Repo) Diff(hash string) ([]FileDiff, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, errors.Wrap(ErrRepoCorrupt, err.Error())
	}

	newFiles, err := treeContents(c)
	if err != nil {
		return nil, err
	}

	oldFiles := map[string]string{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, errors.Wrap(ErrRepoCorrupt, err.Error())
		}
		oldFiles, err = treeContents(parent)
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(newFiles))
	seen := make(map[string]bool, len(newFiles))
	for p := range newFiles {
		paths = append(paths, p)
		seen[p] = true
	}
	for p := range oldFiles {
		if !seen[p] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var diffs []FileDiff
	for _, p := range paths {
		oldText, newText := oldFiles[p], newFiles[p]
		if oldText == newText {
			continue
		}
		hunks, err := diffHunks(p, oldText, newText)
		if err != nil {
			return nil, err
		}
		if len(hunks) == 0 {
			continue
		}
		diffs = append(diffs, FileDiff{Path: p, Hunks: hunks})
	}
	return diffs, nil
}

func treeContents(c *object.Commit) (map[string]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, errors.Wrap(ErrRepoCorrupt, err.Error())
	}

	contents := make(map[string]string)
	err = tree.Files().ForEach(func(f *object.File) error {
		text, err := f.Contents()
		if err != nil {
			return err
		}
		contents[f.Name] = text
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrRepoCorrupt, err.Error())
	}
	return contents, nil
}

// diffHunks renders a unified diff of one blob and regroups the line
// stream into hunks at the @@ header boundaries.
func diffHunks(path, oldText, newText string) ([]Hunk, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gitfs: diffing blob")
	}

	var hunks []Hunk
	var current *Hunk
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case current == nil && (strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++")):
			// The ---/+++ file headers only ever precede the first @@.
			// Past that point a line starting with "---" is a removed
			// "--..." body line and belongs to the hunk.
		case strings.HasPrefix(line, "@@"):
			hunks = append(hunks, Hunk{Header: strings.TrimRight(line, "\n")})
			current = &hunks[len(hunks)-1]
		case current != nil && line != "":
			current.Lines += line
		}
	}
	return hunks, nil
}

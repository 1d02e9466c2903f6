package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/memfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Source is a Stone program ready to run.
type Source struct {
	// Name identifies the program in diagnostics.
	Name string
	Text string
	// Dir anchors the configuration lookup; empty for remote sources.
	Dir string
}

// LoadFile reads a program from disk.
func LoadFile(path string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("source: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", absPath, err)
	}
	return &Source{Name: path, Text: string(data), Dir: filepath.Dir(absPath)}, nil
}

// LoadGit clones url into memory and reads path at ref (HEAD when empty).
func LoadGit(ctx context.Context, url, ref, path string) (*Source, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("source: git url is required")
	}
	repo, err := git.CloneContext(ctx, memory.NewStorage(), memfs.New(), &git.CloneOptions{
		URL: url,
	})
	if err != nil {
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}
	src, err := LoadFromRepository(repo, ref, path)
	if err != nil {
		return nil, err
	}
	src.Name = url + "@" + src.Name
	return src, nil
}

// LoadFromRepository reads path from the commit ref resolves to in repo.
func LoadFromRepository(repo *git.Repository, ref, path string) (*Source, error) {
	revision := strings.TrimSpace(ref)
	if revision == "" {
		revision = string(plumbing.HEAD)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	file, err := commit.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", path, hash, err)
	}
	text, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", path, hash, err)
	}
	return &Source{Name: revision + ":" + path, Text: text}, nil
}

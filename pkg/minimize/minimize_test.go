package minimize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/buck"
)

// project is an on-disk fixture whose build verdict is computed from file
// content: it builds while every file still contains the lines it needs.
type project struct {
	t     *testing.T
	root  string
	needs map[string][]string // workspace-relative path -> required substrings
}

func newProject(t *testing.T) *project {
	return &project{t: t, root: t.TempDir(), needs: make(map[string][]string)}
}

func (p *project) write(rel, content string) {
	p.t.Helper()
	path := filepath.Join(p.root, rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
}

func (p *project) read(rel string) string {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.root, rel))
	require.NoError(p.t, err)
	return string(data)
}

func (p *project) builds() bool {
	for rel, lines := range p.needs {
		data, err := os.ReadFile(filepath.Join(p.root, rel))
		if err != nil {
			return false
		}
		for _, l := range lines {
			if !strings.Contains(string(data), l) {
				return false
			}
		}
	}
	return true
}

func (p *project) oracle() *buck.MockOracle {
	return &buck.MockOracle{BuildFunc: func(targets []string, noCache bool) bool {
		return p.builds()
	}}
}

// snapshot returns the content of every file under the project root
func (p *project) snapshot() map[string]string {
	p.t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(p.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(p.root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(p.t, err)
	return files
}

// recordingSettler counts settle calls
type recordingSettler struct {
	mu      sync.Mutex
	watched []string
	settled []string
}

func (s *recordingSettler) Watch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watched = append(s.watched, path)
	return nil
}

func (s *recordingSettler) Settle(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = append(s.settled, path)
	return nil
}

func (s *recordingSettler) Close() error { return nil }

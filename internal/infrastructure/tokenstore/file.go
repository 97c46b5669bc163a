// Package tokenstore provides the durable persistence backends for the single
// bearer token. All backends are synchronous and hold at most one value; the
// file backend is the default and mirrors browser local storage for a
// single-instance deployment.
package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// FileStore persists the token in a single file, mode 0600.
type FileStore struct {
	path string
}

var _ ports.TokenStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (s *FileStore) Set(_ context.Context, token string) error {
	// Write-then-rename so a crash never leaves a torn token on disk.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// LocalEvidenceStore implements port.EvidenceStore on the local filesystem.
// Blobs are written as <baseDir>/<owner>/<uuid><ext>; the ref is the part after baseDir.
type LocalEvidenceStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalEvidenceStore creates a new LocalEvidenceStore
func NewLocalEvidenceStore(baseDir string, logger *zap.Logger) *LocalEvidenceStore {
	return &LocalEvidenceStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// PutBlob writes content under a fresh name in the owner's folder
func (s *LocalEvidenceStore) PutBlob(ctx context.Context, ownerID, filename string, content []byte) (string, error) {
	owner := sanitizeName(ownerID)
	if owner == "" {
		return "", fmt.Errorf("invalid owner id: %q", ownerID)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if unsafeNameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	ref := path.Join(owner, uuid.NewString()+ext)

	fullPath, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create owner directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write evidence",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Evidence saved",
		zap.String("ref", ref),
		zap.Int("size", len(content)))

	return ref, nil
}

// Open returns a reader for ref, or workflow.ErrNotFound when it does not exist
func (s *LocalEvidenceStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: evidence %s", workflow.ErrNotFound, ref)
	}
	if err != nil {
		s.logger.Error("Failed to open evidence",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Exists checks if a blob exists for ref
func (s *LocalEvidenceStore) Exists(ctx context.Context, ref string) bool {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// resolve maps a ref to a path inside baseDir and rejects anything that escapes it
func (s *LocalEvidenceStore) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty evidence ref")
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(ref)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", ref)
	}
	return absPath, nil
}

// sanitizeName keeps only characters safe for a single path segment
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeNameChars.ReplaceAllString(name, "")
}

var _ port.EvidenceStore = (*LocalEvidenceStore)(nil)

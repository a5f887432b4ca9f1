package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskBlobStore writes publicly readable blobs under a local root directory.
// The router serves the root over /static, so a blob's public URL is the
// configured base URL plus its relative path. There is no delete path:
// stored blobs live forever, like the bucket this replaced.
type DiskBlobStore struct {
	Root    string
	BaseURL string
}

// NewDiskBlobStore returns a store rooted at root, with URLs under baseURL.
func NewDiskBlobStore(root, baseURL string) *DiskBlobStore {
	return &DiskBlobStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes data at the given relative path, creating directories as
// needed, and returns the blob's public URL.
func (s *DiskBlobStore) Save(relPath string, data []byte) (string, error) {
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if relPath == "." || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("invalid blob path %q", relPath)
	}
	dst := filepath.Join(s.Root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.BaseURL + "/" + relPath, nil
}

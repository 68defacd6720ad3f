package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Allowed extensions for lesson slide uploads.
var AllowedSlideExtensions = map[string]bool{
	".pdf":  true,
	".ppt":  true,
	".pptx": true,
}

// Storage writes uploaded blobs under a base directory and serves them by
// relative URL. Metadata rows are written after the blob; on a metadata
// failure the caller removes the blob again.
type Storage struct {
	BaseDir string
}

func NewStorage(baseDir string) *Storage {
	return &Storage{BaseDir: baseDir}
}

// Save streams the upload into BaseDir/subdir under a generated name and
// returns the public URL of the stored file.
func (s *Storage) Save(file *multipart.FileHeader, subdir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(s.BaseDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/" + subdir + "/" + name, nil
}

// Remove deletes a stored file by its public URL. Missing files are not an
// error; the DB row is the source of truth.
func (s *Storage) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, "/uploads/")
	if !ok {
		return fmt.Errorf("not a stored file url: %s", url)
	}
	err := os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

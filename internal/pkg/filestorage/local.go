package filestorage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/pkg/apperrors"
)

const tempPrefix = ".upload-"

// LocalStorage keeps uploaded files in a single flat directory.
type LocalStorage struct {
	root   string
	logger zerolog.Logger
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(basePath string, logger zerolog.Logger) (*LocalStorage, error) {
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path %s: %w", basePath, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		logger.Error().Err(err).Str("path", root).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	logger.Info().Str("path", root).Msg("Local storage directory ensured")

	return &LocalStorage{root: root, logger: logger}, nil
}

// destination resolves filename against the root and rejects anything
// whose parent directory is not the root itself.
func (ls *LocalStorage) destination(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" || name == "." || name == ".." {
		return "", apperrors.NewBadRequestError("filename is required")
	}

	dest := filepath.Join(ls.root, name)
	if filepath.Dir(dest) != ls.root {
		return "", apperrors.NewCustomError(apperrors.ErrPathTraversal, apperrors.ErrPathTraversal.Error())
	}
	return dest, nil
}

func (ls *LocalStorage) Store(filename string, src io.Reader) (string, error) {
	dest, err := ls.destination(filename)
	if err != nil {
		ls.logger.Warn().Str("filename", filename).Err(err).Msg("Rejected upload filename")
		return "", err
	}

	tmp, err := os.CreateTemp(ls.root, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to store file %s: %w", filename, errors.Join(copyErr, closeErr))
	}
	if n == 0 {
		_ = os.Remove(tmpName)
		return "", apperrors.NewCustomError(apperrors.ErrEmptyFile, apperrors.ErrEmptyFile.Error())
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to store file %s: %w", filename, err)
	}

	stored := filepath.Base(dest)
	ls.logger.Info().Str("filename", stored).Int64("size", n).Msg("File stored")
	return stored, nil
}

func (ls *LocalStorage) Resolve(filename string) (string, error) {
	path, err := ls.destination(filename)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.NewCustomError(apperrors.ErrFileNotFound, "Could not read file: "+filename)
		}
		return "", fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
		return "", apperrors.NewCustomError(apperrors.ErrFileNotFound, "Could not read file: "+filename)
	}
	return path, nil
}

func (ls *LocalStorage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(ls.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Filename: e.Name(), Size: info.Size(), ModifiedAt: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

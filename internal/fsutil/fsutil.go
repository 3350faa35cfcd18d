// Package fsutil holds filename and path helpers shared by the upload and
// file-serving paths.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrPathTraversal     = errors.New("path escapes root directory")
	ErrEmptyName         = errors.New("filename is empty after sanitizing")
	ErrDestinationExists = errors.New("destination file already exists")
	ErrWriteFailed       = errors.New("write failed")
)

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

var multiSpace = regexp.MustCompile(`\s+`)

var multiDot = regexp.MustCompile(`\.{2,}`)

// SanitizeFilename reduces an uploaded name to a single safe path element.
// Directory components are dropped, so "../../etc/passwd" becomes "passwd".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	name = illegalChars.ReplaceAllString(name, "")
	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	// Spaces are awkward in media URLs.
	return strings.ReplaceAll(name, " ", "_")
}

// ValidatePath ensures path is root or lies beneath it.
func ValidatePath(p, root string) error {
	cleanPath := filepath.Clean(p)
	cleanRoot := filepath.Clean(root)

	if cleanPath == cleanRoot {
		return nil
	}
	prefix := cleanRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(cleanPath, prefix) {
		return ErrPathTraversal
	}
	return nil
}

// Resolve joins a slash-separated relative path onto root and rejects
// results that would escape it.
func Resolve(root, rel string) (string, error) {
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", ErrPathTraversal
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := ValidatePath(full, root); err != nil {
		return "", err
	}
	return full, nil
}

// WriteNew copies r into a new file at dst, creating parent directories.
// Returns ErrDestinationExists if dst already exists. A partial file is
// removed on failure.
func WriteNew(fs afero.Fs, dst string, r io.Reader) (int64, error) {
	if _, err := fs.Stat(dst); err == nil {
		return 0, ErrDestinationExists
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("%w: create directory: %v", ErrWriteFailed, err)
	}

	f, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, ErrDestinationExists
		}
		return 0, fmt.Errorf("%w: create destination: %v", ErrWriteFailed, err)
	}

	size, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fs.Remove(dst)
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return size, nil
}

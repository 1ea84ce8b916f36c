package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Spooled is an upload copied to a temporary file so it can be probed and re-read.
type Spooled struct {
	Path string
	Size int64
}

// Open reopens the spooled file from the start.
func (s Spooled) Open() (*os.File, error) {
	return os.Open(s.Path)
}

// Remove deletes the temporary file.
func (s Spooled) Remove() error {
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Spool copies r into a temporary file under dir that keeps the extension of filename.
func Spool(dir, filename string, r io.Reader) (Spooled, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return Spooled{}, fmt.Errorf("create spool file: %w", err)
	}

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if copyErr != nil {
			return Spooled{}, fmt.Errorf("spool upload: %w", copyErr)
		}
		return Spooled{}, fmt.Errorf("close spool file: %w", closeErr)
	}

	return Spooled{Path: f.Name(), Size: size}, nil
}

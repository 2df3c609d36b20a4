package ops

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/errors"
)

// MaxFileSize caps how much ReadFile will load.
const MaxFileSize = 64 << 20

// ReadFile validates path for reading and returns its contents.
func ReadFile(path, ext string, cfg *config.Config) ([]byte, error) {
	if err := ValidatePath(path, PathCheckRead, ext, cfg); err != nil {
		return nil, err
	}
	f, err := openNoFollow(path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := err.(*errors.MarkError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read %s: %w", path, err))
	}
	if len(data) > MaxFileSize {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("file exceeds %d bytes", MaxFileSize))
	}
	return data, nil
}

// WriteFile validates path for writing and replaces it with data.
func WriteFile(path, ext string, data []byte, cfg *config.Config) error {
	return WriteFileFunc(path, ext, cfg, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// WriteFileFunc validates path for writing, streams write into a temporary
// file next to it and renames that into place. An existing file survives any
// failure untouched.
func WriteFileFunc(path, ext string, cfg *config.Config, write func(w io.Writer) error) error {
	if err := ValidatePath(path, PathCheckWrite, ext, cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create %s: %w", tempPath, err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := write(file); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to write %s: %w", path, err))
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before the rename; Windows requires it.
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close %s: %w", tempPath, err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("destination already exists; overwriting is not supported on Windows")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize %s: %w", path, err))
	}

	success = true
	return nil
}

package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SaveSnapshot encodes object with msgpack, compresses it as an lz4 frame and
// writes it to filePath through a temporary file, creating directories as needed.
func SaveSnapshot(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	zw := lz4.NewWriter(tmp)
	if err := msgpack.NewEncoder(zw).Encode(object); err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", filePath, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress snapshot %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to move snapshot into place at %s: %w", filePath, err)
	}
	committed = true
	return nil
}

// LoadSnapshot decodes a snapshot written by SaveSnapshot into objectPointer.
// If the file does not exist it returns os.ErrNotExist, so callers can treat a
// missing snapshot as a fresh start.
func LoadSnapshot(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is built by the engine from its data dir
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	if err := msgpack.NewDecoder(lz4.NewReader(file)).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", filePath, err)
	}
	return nil
}

// Package fingerprint computes stable content hashes of source files
// and builds directory manifests used to detect orphans and renames.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const readChunkSize = 8 * 1024

// File streams path's bytes through a cryptographic digest and returns
// the lowercase hex fingerprint (32 characters). It never loads the
// whole file into memory, depends only on file contents, and is
// deterministic across processes and machines.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, readChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("fingerprint: %s: %w", path, err)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]), nil
}

// Hint carries a previously-computed fingerprint plus the file metadata
// it was computed against, so callers can skip rehashing unchanged
// files (original_source/src/minirag/vectorstore.py's
// _current_pdf_state reuse rule).
type Hint struct {
	Size        int64
	ModTimeUnix int64
	Fingerprint string
}

// Entry describes one file discovered by DirectoryManifest.
type Entry struct {
	Filename    string
	Fingerprint string
	Size        int64
}

// DirectoryManifest walks dir non-recursively and returns every regular
// file's fingerprint. prevHints, if non-nil, lets unchanged files (same
// size and mtime as a prior scan) reuse their previously computed
// fingerprint instead of rehashing.
func DirectoryManifest(dir string, prevHints map[string]Hint) (map[string]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("directory manifest: %s: %w", dir, err)
	}

	out := make(map[string]Entry, len(entries))
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("directory manifest: %s: %w", de.Name(), err)
		}

		path := filepath.Join(dir, de.Name())
		fp, err := resolveFingerprint(path, info.Size(), info.ModTime().Unix(), prevHints[de.Name()])
		if err != nil {
			return nil, err
		}

		out[fp] = Entry{Filename: de.Name(), Fingerprint: fp, Size: info.Size()}
	}
	return out, nil
}

func resolveFingerprint(path string, size, modTime int64, hint Hint) (string, error) {
	if hint.Fingerprint != "" && hint.Size == size && hint.ModTimeUnix == modTime {
		return hint.Fingerprint, nil
	}
	return File(path)
}

// Valid reports whether s looks like a fingerprint this package
// produces: 32 lowercase hex characters. Used by the Cache Reclaimer to
// avoid ever touching a directory whose name isn't a fingerprint.
func Valid(s string) bool {
	if len(s) != 32 {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	}) == -1
}

package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"ragindex/internal/adapter/fingerprint"
	"ragindex/internal/domain"
)

// Reclaim is the Cache Reclaimer (§4.H): it compares the set of
// per-fingerprint index directories on disk under root against the
// fingerprints of the source files currently in root, and removes
// whichever index directories no longer correspond to a source file
// (a source was deleted or replaced since the index was built).
// Grounded on the teacher's internal/adapter/fs/walker.go non-recursive
// directory-scan shape and original_source/src/minirag/vectorstore.py's
// manifest-diff staleness check, generalized from "is this one file
// stale" to "which on-disk directories are now orphaned".
//
// Reclaim never recurses into a fingerprint directory to remove parts
// of it: an index directory is reclaimed whole, or not at all. Any
// subdirectory of root whose name doesn't look like a fingerprint
// (fingerprint.Valid) is left untouched, so a stray file or the
// .mini_rag_index collection directory is never mistaken for an orphan.
func Reclaim(root string, dryRun bool) (domain.ReclaimReport, error) {
	current, err := fingerprint.DirectoryManifest(root, nil)
	if err != nil {
		return domain.ReclaimReport{}, fmt.Errorf("reclaim: scanning sources in %s: %w", root, err)
	}
	live := make(map[string]struct{}, len(current))
	for fp := range current {
		live[fp] = struct{}{}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return domain.ReclaimReport{}, fmt.Errorf("reclaim: reading %s: %w", root, err)
	}

	var report domain.ReclaimReport
	for _, de := range entries {
		if !de.IsDir() || !fingerprint.Valid(de.Name()) {
			continue
		}

		if _, ok := live[de.Name()]; ok {
			report.Kept++
			continue
		}

		dir := filepath.Join(root, de.Name())
		size, sizeErr := dirSize(dir)
		if sizeErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", dir, sizeErr))
			continue
		}

		report.OrphansFound++
		if dryRun {
			// Dry runs still report what would be freed, they just
			// don't touch the filesystem.
			report.BytesFreed += size
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", dir, err))
			continue
		}
		report.BytesFreed += size
	}

	return report, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileStability(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hello world")

	fp1, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	fp2, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if fp1 != fp2 {
		t.Errorf("fingerprint not stable: %s != %s", fp1, fp2)
	}
	if len(fp1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(fp1))
	}
}

func TestFileRenameInvariant(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "original.txt", "same bytes")

	before, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	renamed := filepath.Join(dir, "renamed.txt")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}

	after, err := File(renamed)
	if err != nil {
		t.Fatal(err)
	}

	if before != after {
		t.Errorf("rename changed fingerprint: %s != %s", before, after)
	}
}

func TestFileContentChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "version 1")

	before, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "a.txt", "version 2")

	after, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	if before == after {
		t.Error("expected fingerprint to change after content modification")
	}
}

func TestFileUnreadable(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDirectoryManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	writeFile(t, dir, "b.txt", "bbb")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "nested.txt", "should not be seen")

	manifest, err := DirectoryManifest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest) != 2 {
		t.Fatalf("expected 2 entries (non-recursive), got %d", len(manifest))
	}
	for fp, entry := range manifest {
		if !Valid(fp) {
			t.Errorf("manifest key %q is not a valid fingerprint", fp)
		}
		if entry.Filename != "a.txt" && entry.Filename != "b.txt" {
			t.Errorf("unexpected filename: %s", entry.Filename)
		}
	}
}

func TestDirectoryManifestReusesHint(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "content")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	hints := map[string]Hint{
		"a.txt": {Size: info.Size(), ModTimeUnix: info.ModTime().Unix(), Fingerprint: "deadbeefdeadbeefdeadbeefdeadbeef"},
	}

	manifest, err := DirectoryManifest(dir, hints)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := manifest["deadbeefdeadbeefdeadbeefdeadbeef"]
	if !ok {
		t.Fatal("expected hinted fingerprint to be reused")
	}
	if entry.Filename != "a.txt" {
		t.Errorf("unexpected filename: %s", entry.Filename)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"abcdef0123456789abcdef0123456789": true,
		"ABCDEF0123456789abcdef0123456789": false, // uppercase not allowed
		"too-short":                        false,
		"":                                 false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}

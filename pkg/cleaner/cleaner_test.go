package cleaner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestCleanRemovesGenerated(t *testing.T) {
	dir := t.TempDir()
	keep := []string{"data.tif", "LOTA42_18.001", "notes.txt", "unrelated.tiff"}
	remove := []string{"2_10.2_5.1_BSE.tif", "2_20.0_8.3_SE1.tif", "data_page_3.tiff", "Wafer_RawImage.tiff"}
	for _, name := range append(append([]string{}, keep...), remove...) {
		writeFile(t, filepath.Join(dir, name))
	}

	deleted, err := New(zerolog.Nop()).Clean(dir)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if len(deleted) != len(remove) {
		t.Errorf("Deleted %d files, want %d: %v", len(deleted), len(remove), deleted)
	}

	sort.Strings(keep)
	if got := listNames(t, dir); !equal(got, keep) {
		t.Errorf("Remaining files = %v, want %v", got, keep)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.tif"))
	writeFile(t, filepath.Join(dir, "2_10.2_5.1_BSE.tif"))

	c := New(zerolog.Nop())
	if _, err := c.Clean(dir); err != nil {
		t.Fatalf("First clean failed: %v", err)
	}
	before := listNames(t, dir)

	deleted, err := c.Clean(dir)
	if err != nil {
		t.Fatalf("Second clean failed: %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("Second clean deleted %d files, want 0", len(deleted))
	}
	if got := listNames(t, dir); !equal(got, before) {
		t.Errorf("File set changed on second clean: %v vs %v", got, before)
	}
}

func TestNormalizeFolders(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"w01", "w18", "misc"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	if err := New(zerolog.Nop()).NormalizeFolders(root); err != nil {
		t.Fatalf("NormalizeFolders failed: %v", err)
	}

	want := []string{"1", "18", "misc"}
	if got := listNames(t, root); !equal(got, want) {
		t.Errorf("Folders = %v, want %v", got, want)
	}
}

func TestNormalizeFoldersConflictSkipped(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"w01", "1"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	if err := New(zerolog.Nop()).NormalizeFolders(root); err != nil {
		t.Fatalf("NormalizeFolders failed: %v", err)
	}

	want := []string{"1", "w01"}
	if got := listNames(t, root); !equal(got, want) {
		t.Errorf("Folders = %v, want %v", got, want)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

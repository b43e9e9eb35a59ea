package organizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestOrganizer() *Organizer {
	return New(zerolog.Nop())
}

func TestOrganizePair(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LOTA42_18.tif"))
	writeFile(t, filepath.Join(root, "LOTA42_18.001"))

	outcomes, err := newTestOrganizer().Organize(root)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("Outcome for %s failed: %v", o.File, o.Err)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "18", "data.tif")); err != nil {
		t.Errorf("Merged TIFF not moved to 18/data.tif: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "18", "LOTA42_18.001")); err != nil {
		t.Errorf("Report not moved (name preserved): %v", err)
	}
}

func TestOrganizeTwiceIsNoOp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LOTA42_18.tif"))
	writeFile(t, filepath.Join(root, "LOTA42_18.001"))

	org := newTestOrganizer()
	if _, err := org.Organize(root); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	outcomes, err := org.Organize(root)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("Second run produced %d outcomes, want 0", len(outcomes))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "18" {
		t.Errorf("Unexpected root contents after second run: %v", entries)
	}
}

func TestOrganizeAmbiguousPair(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LOTA42_18.tif"))
	writeFile(t, filepath.Join(root, "LOTB07_18.tif"))
	writeFile(t, filepath.Join(root, "LOTA42_18.001"))

	outcomes, err := newTestOrganizer().Organize(root)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}

	ambiguous := 0
	for _, o := range outcomes {
		var oerr *OrganizeError
		if errors.As(o.Err, &oerr) {
			ambiguous++
		}
	}
	if ambiguous != 3 {
		t.Errorf("Expected 3 ambiguous outcomes, got %d", ambiguous)
	}

	// Every file of the ambiguous sample stays at the root, the report
	// included, and no sample folder is created.
	for _, name := range []string{"LOTA42_18.tif", "LOTB07_18.tif", "LOTA42_18.001"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s was moved: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "18")); !os.IsNotExist(err) {
		t.Error("Sample folder was created for an ambiguous sample")
	}
}

func TestOrganizeCollisionSkips(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "18"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "18", "data.tif"))
	writeFile(t, filepath.Join(root, "LOTA42_18.tif"))

	outcomes, err := newTestOrganizer().Organize(root)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(outcomes))
	}

	var oerr *OrganizeError
	if !errors.As(outcomes[0].Err, &oerr) {
		t.Fatalf("Expected OrganizeError, got %v", outcomes[0].Err)
	}
	if _, err := os.Stat(filepath.Join(root, "LOTA42_18.tif")); err != nil {
		t.Error("Colliding TIFF was moved instead of skipped")
	}
}

func TestOrganizeNoSuffixSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.tif"))

	outcomes, err := newTestOrganizer().Organize(root)
	if err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("Expected one skipped outcome, got %+v", outcomes)
	}
	if _, err := os.Stat(filepath.Join(root, "data.tif")); err != nil {
		t.Error("Unrecognized file was moved")
	}
}

func TestOrganizeMissingRoot(t *testing.T) {
	if _, err := newTestOrganizer().Organize(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Organize on a missing root succeeded, want error")
	}
}

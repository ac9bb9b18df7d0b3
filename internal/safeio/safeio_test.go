package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirWriteAndRead(t *testing.T) {
	d, err := NewDir(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	if err := d.WriteFile("turn-001/css/site.css", []byte("body{}")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.WriteFile("turn-001/css/site.css", []byte("main{}")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := d.ReadFile("turn-001/css/site.css")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "main{}" {
		t.Fatalf("content = %q", got)
	}
}

func TestDirRejectsEscapes(t *testing.T) {
	base := t.TempDir()
	d, err := NewDir(filepath.Join(base, "out"))
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	for _, p := range []string{"../x", "/etc/passwd", "a/../../x", "", "."} {
		if err := d.WriteFile(p, []byte("x")); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}

	outside := filepath.Join(base, "elsewhere")
	if err := os.Mkdir(outside, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(d.Root(), "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := d.WriteFile("link/x.txt", []byte("x")); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("symlinked parent err = %v", err)
	}
}

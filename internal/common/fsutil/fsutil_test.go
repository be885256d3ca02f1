package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	exp, err := ExpandHome("~/models")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "models" {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestPathExistsAndSize(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "m.gguf")
	if PathExists(p) {
		t.Fatalf("expected missing file")
	}
	if PathExists("") {
		t.Fatalf("empty path must not exist")
	}
	if err := os.WriteFile(p, make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !PathExists(p) {
		t.Fatalf("expected file to exist")
	}
	if got := FileSize(p); got != 2048 {
		t.Fatalf("size=%d", got)
	}
	if FileSize(dir) != 0 {
		t.Fatalf("directory size should be 0")
	}
	if !IsDir(dir) || IsDir(p) {
		t.Fatalf("IsDir mismatch")
	}
}

package osfilesystem

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "descriptor.json")
	testData := []byte(`{"fps": 30}`)

	if err := fs.WriteFile(testPath, testData); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(testPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := NewWithFs(afero.NewMemMapFs())
	testPath := filepath.Join("debug", "snapshots", "frame-0001.png")

	if err := fs.WriteFile(testPath, []byte("png")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	isDir, err := afero.IsDir(fs.Fs(), filepath.Join("debug", "snapshots"))
	if err != nil {
		t.Fatalf("IsDir failed: %v", err)
	}
	if !isDir {
		t.Error("expected parent directory to exist")
	}
}

func TestFileSystem_WriteFileReplaces(t *testing.T) {
	fs := NewWithFs(afero.NewMemMapFs())

	if err := fs.WriteFile("descriptor.json", []byte(`{"fps": 30, "frames": 120}`)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile("descriptor.json", []byte(`{}`)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile("descriptor.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected file to be replaced, got %q", data)
	}
}

func TestFileSystem_ReadMissingFile(t *testing.T) {
	fs := NewWithFs(afero.NewMemMapFs())

	if _, err := fs.ReadFile("missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := NewWithFs(afero.NewMemMapFs())
	dir := filepath.Join("a", "b", "c")

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if ok, _ := afero.DirExists(fs.Fs(), dir); !ok {
		t.Error("expected directory to exist")
	}
	if err := fs.MkdirAll(dir); err != nil {
		t.Errorf("MkdirAll on existing directory failed: %v", err)
	}
}

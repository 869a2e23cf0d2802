package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/user/videostream/pkg/mocks"
	"github.com/user/videostream/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveDescriptorJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"fps": 30}`)
	if err := sink.SaveDescriptorJSON(data); err != nil {
		t.Fatalf("SaveDescriptorJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "descriptor.json")
	saved, ok := fs.File(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		format ports.ImageFormat
		want   string
	}{
		{name: "png", format: ports.FormatPNG, want: "frame-0005.png"},
		{name: "jpeg", format: ports.FormatJPEG, want: "frame-0005.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			var gotFormat ports.ImageFormat = -1
			renderer := &mocks.Renderer{
				EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
					gotFormat = format
					return []byte{0x89, 0x50, 0x4E, 0x47}, nil
				},
			}
			sink := New(testBaseDir, fs, renderer).WithFormat(tt.format)

			if err := sink.SaveSnapshot(5, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
				t.Fatalf("SaveSnapshot failed: %v", err)
			}

			if gotFormat != tt.format {
				t.Errorf("encoded as %d, want %d", gotFormat, tt.format)
			}
			expectedPath := filepath.Join(testBaseDir, "snapshots", tt.want)
			if _, ok := fs.File(expectedPath); !ok {
				t.Errorf("expected file to be saved at %s", expectedPath)
			}
		})
	}
}

func TestSink_SaveSnapshotEncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveSnapshot(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
	if len(fs.Files()) != 0 {
		t.Error("expected no files written")
	}
}

func TestSink_MultipleSnapshots(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	for i := 0; i < 10; i++ {
		if err := sink.SaveSnapshot(i, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
			t.Fatalf("SaveSnapshot %d failed: %v", i, err)
		}
	}

	if got := len(fs.Files()); got != 10 {
		t.Errorf("expected 10 files, got %d", got)
	}
}

func TestSink_SnapshotDirectory(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	if err := sink.SaveSnapshot(1, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	ok, err := afero.DirExists(fs.Fs, filepath.Join(testBaseDir, "snapshots"))
	if err != nil || !ok {
		t.Errorf("expected snapshots directory, exists=%v err=%v", ok, err)
	}
}

func TestSink_WriteErrors(t *testing.T) {
	errDisk := errors.New("disk full")

	t.Run("descriptor", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		fs.WriteFileFunc = func(path string, data []byte) error { return errDisk }
		sink := New(testBaseDir, fs, &mocks.Renderer{})

		if err := sink.SaveDescriptorJSON([]byte(`{}`)); !errors.Is(err, errDisk) {
			t.Errorf("expected disk error, got %v", err)
		}
		if fs.WriteCount() != 1 {
			t.Errorf("expected 1 write attempt, got %d", fs.WriteCount())
		}
	})

	t.Run("snapshot directory", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		fs.MkdirAllFunc = func(path string) error { return errDisk }
		sink := New(testBaseDir, fs, &mocks.Renderer{})

		if err := sink.SaveSnapshot(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, errDisk) {
			t.Errorf("expected disk error, got %v", err)
		}
		if fs.WriteCount() != 0 {
			t.Errorf("expected no writes, got %d", fs.WriteCount())
		}
	})
}

package ffmpegsource

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath sets a custom ffmpeg binary. An empty path restores the search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpegPath
	pathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	return findTool("ffmpeg", ErrFFmpegNotFound)
}

// FindFFprobe looks for ffprobe next to the ffmpeg binary first, then like FindFFmpeg.
func FindFFprobe() (string, error) {
	if ffmpeg, err := FindFFmpeg(); err == nil {
		candidate := filepath.Join(filepath.Dir(ffmpeg), executable("ffprobe"))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return findTool("ffprobe", ErrFFprobeNotFound)
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func findTool(name string, notFound error) (string, error) {
	execName := executable(name)
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		dirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		dirs = []string{"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin", "/snap/bin"}
	}

	for _, dir := range dirs {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", notFound
}

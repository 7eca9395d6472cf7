package epd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"inkcal/internal/convert"
	appLog "inkcal/internal/log"
)

// FileDisplay writes every frame to Dir as black.bin and red.bin. It is used
// when no panel is attached and to dump what would have been shown.
type FileDisplay struct {
	Dir   string
	Panel convert.Panel
	Log   *appLog.Logger

	mu     sync.Mutex
	frames int
	awake  bool
}

// NewFileDisplay writes frames for panel under dir, creating it on Init.
func NewFileDisplay(dir string, panel convert.Panel, logger *appLog.Logger) *FileDisplay {
	return &FileDisplay{Dir: dir, Panel: panel, Log: logger}
}

func (f *FileDisplay) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("epd(file): %w", err)
	}
	f.awake = true
	return nil
}

func (f *FileDisplay) Clear() error {
	black, red := convert.Solid(f.Panel, convert.InkWhite)
	return f.Show(black, red)
}

// Show writes the planes to black.bin and red.bin. The display must be
// initialised and awake.
func (f *FileDisplay) Show(black, red []byte) error {
	if err := checkPlanes(f.Panel, black, red); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.awake {
		return fmt.Errorf("epd(file): display is asleep, call Init first")
	}
	if err := os.WriteFile(filepath.Join(f.Dir, "black.bin"), black, 0o644); err != nil {
		return fmt.Errorf("epd(file): %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.Dir, "red.bin"), red, 0o644); err != nil {
		return fmt.Errorf("epd(file): %w", err)
	}
	f.frames++
	f.Log.Debug("frame written", "dir", f.Dir, "frame", f.frames)
	return nil
}

func (f *FileDisplay) Sleep() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awake = false
	return nil
}

// Frames reports how many frames were shown.
func (f *FileDisplay) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voice-home/internal/domain"
)

// FileSource replays transcripts dropped as *.txt files into a directory.
// Each file holds one phrase and is renamed with a .processed suffix once
// read.
type FileSource struct {
	dir       string
	poll      time.Duration
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		poll:      500 * time.Millisecond,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextTranscript(ctx context.Context) (domain.Transcript, error) {
	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		t, ok, err := f.checkForNewFile()
		if err != nil {
			return domain.Transcript{}, err
		}
		if ok {
			return t, nil
		}

		select {
		case <-ctx.Done():
			return domain.Transcript{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() (domain.Transcript, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return domain.Transcript{}, false, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Transcript{}, false, fmt.Errorf("reading file %s: %w", path, err)
		}
		f.processed[path] = true
		_ = os.Rename(path, path+".processed")

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		return domain.Transcript{Text: text, Confidence: 1, Final: true}, true, nil
	}

	return domain.Transcript{}, false, nil
}

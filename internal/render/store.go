package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
)

// Artifact is one rendered report file in durable storage.
type Artifact struct {
	Location string // URL exposed to readers
	Path     string // filesystem path
	Size     int64
}

// ArtifactStore writes rendered reports under a directory and exposes them
// through a base URL. Writes are all-or-nothing: the file is rendered to a
// temp name and renamed into place, so a reader never observes a truncated
// artifact.
type ArtifactStore struct {
	dir     string
	baseURL string
}

func NewArtifactStore(dir, baseURL string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %v", err)
	}
	return &ArtifactStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save renders one artifact via the supplied writer function and publishes it
// atomically.
func (s *ArtifactStore) Save(name string, format models.ReportFormat, write func(io.Writer) error) (*Artifact, error) {
	filename := fmt.Sprintf("%s_%d.%s", sanitizeName(name), time.Now().UnixNano(), format.Extension())
	finalPath := filepath.Join(s.dir, filename)

	tmp, err := os.CreateTemp(s.dir, ".tmp-report-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to sync artifact: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close artifact: %v", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to stat artifact: %v", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to publish artifact: %v", err)
	}

	return &Artifact{
		Location: s.baseURL + "/" + filename,
		Path:     finalPath,
		Size:     info.Size(),
	}, nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Package fsstore persists results as flat files: one JSON verdict and one
// PNG per id, under parallel directories. The default single-instance backend.
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/uuid"

	domain "github.com/iyervish/design-crit/internal/domain/analysis"
)

const (
	resultsDir     = "results"
	screenshotsDir = "screenshots"
)

// ids are hex only; anything else never touches the filesystem
var validID = regexp.MustCompile(`^[0-9a-f]{32}$`)

type Store struct {
	baseDir string
}

func New(baseDir string) (*Store, error) {
	for _, dir := range []string{resultsDir, screenshotsDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// Put writes both artifacts under a fresh id. The screenshot lands first and
// the verdict last, so a verdict on disk always has its image; if the verdict
// write fails the screenshot is removed again. Concurrent puts never collide
// because every call generates its own id.
func (s *Store) Put(ctx context.Context, res *domain.Result, image []byte) (domain.ResultID, error) {
	id := domain.NewID()

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	imagePath := s.imagePath(id)
	if err := writeAtomic(imagePath, image); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	if err := writeAtomic(s.resultPath(id), data); err != nil {
		_ = os.Remove(imagePath)
		return "", fmt.Errorf("write result: %w", err)
	}
	return id, nil
}

// Get loads both artifacts. A missing half is a not-found, never a partial.
func (s *Store) Get(ctx context.Context, id domain.ResultID) (*domain.Result, []byte, error) {
	if !validID.MatchString(string(id)) {
		return nil, nil, domain.ErrNotFound
	}

	data, err := os.ReadFile(s.resultPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("read result: %w", err)
	}
	image, err := os.ReadFile(s.imagePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("read screenshot: %w", err)
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, nil, fmt.Errorf("decode stored result %s: %w", id, err)
	}
	return &res, image, nil
}

// Recent lists stored results newest first.
func (s *Store) Recent(ctx context.Context, page, pageSize int) ([]domain.Summary, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, resultsDir))
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	summaries := make([]domain.Summary, 0, len(entries))
	for _, e := range entries {
		id := domain.ResultID(e.Name()[:len(e.Name())-len(filepath.Ext(e.Name()))])
		if !validID.MatchString(string(id)) {
			continue
		}
		res, _, err := s.Get(ctx, id)
		if err != nil {
			// skip half-written or torn entries instead of failing the page
			continue
		}
		summaries = append(summaries, domain.Summary{
			ID:           id,
			OverallScore: res.OverallScore,
			SourceType:   res.SourceType,
			SourceValue:  res.SourceValue,
			Timestamp:    res.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})

	start := (page - 1) * pageSize
	if start >= len(summaries) {
		return []domain.Summary{}, nil
	}
	end := start + pageSize
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end], nil
}

func (s *Store) resultPath(id domain.ResultID) string {
	return filepath.Join(s.baseDir, resultsDir, string(id)+".json")
}

func (s *Store) imagePath(id domain.ResultID) string {
	return filepath.Join(s.baseDir, screenshotsDir, string(id)+".png")
}

// writeAtomic writes to a uniquely named temp file in the target directory
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

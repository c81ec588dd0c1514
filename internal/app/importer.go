package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restaurant_reviews/internal/domain"
	"restaurant_reviews/internal/storage/textfile"
)

// ImportService merges review files from elsewhere into the manager. Source
// ids are dropped; every imported review gets a fresh id.
type ImportService struct {
	m       *ReviewManager
	workers int
}

func NewImportService(m *ReviewManager, workers int) *ImportService {
	if workers <= 0 {
		workers = 1
	}
	return &ImportService{m: m, workers: workers}
}

type FileResult struct {
	Path     string
	Imported int
	Err      error
}

type ImportResult struct {
	Files    []FileResult
	Imported int
}

func (r ImportResult) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// ImportFiles decodes the files concurrently, then adds their reviews in
// argument order. A file that fails to decode is skipped whole. The returned
// error is non-nil only when the manager itself refuses a write.
func (s *ImportService) ImportFiles(ctx context.Context, paths []string) (ImportResult, error) {
	decoded := make([][]domain.ReviewInput, len(paths))
	res := ImportResult{Files: make([]FileResult, len(paths))}

	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup
	for i, p := range paths {
		res.Files[i].Path = p

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			res.Files[i].Err = err
			continue
		}
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			defer sem.Release(1)

			ins, err := decodeFile(ctx, p)
			if err != nil {
				res.Files[i].Err = err
				return
			}
			decoded[i] = ins
		}(i, p)
	}
	wg.Wait()

	for i := range paths {
		f := &res.Files[i]
		if f.Err != nil {
			log.Warn().Str("file", f.Path).Err(f.Err).Msg("import skipped")
			continue
		}
		for _, in := range decoded[i] {
			if _, err := s.m.AddReview(ctx, in); err != nil {
				return res, fmt.Errorf("import %s: %w", f.Path, err)
			}
			f.Imported++
			res.Imported++
		}
		log.Info().Str("file", f.Path).Int("reviews", f.Imported).Msg("import ok")
	}
	return res, nil
}

func decodeFile(ctx context.Context, path string) ([]domain.ReviewInput, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var raw []map[string]any
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ins, err := mapReviews(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ins, nil
	}

	// textfile treats a missing file as empty; for imports it is an error.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	rs, err := textfile.New(path).Load(ctx)
	if err != nil {
		return nil, err
	}
	ins := make([]domain.ReviewInput, 0, len(rs))
	for _, r := range rs {
		ins = append(ins, domain.ReviewInput{
			CustomerName:   r.CustomerName,
			RestaurantName: r.RestaurantName,
			Rating:         r.Rating,
			Text:           r.Text,
		})
	}
	return ins, nil
}

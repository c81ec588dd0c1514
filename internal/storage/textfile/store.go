// Package textfile keeps reviews in a flat file, one encoded review per line.
package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"restaurant_reviews/internal/domain"
)

// maxLine bounds a single encoded review; bufio's 64KiB default is too small
// for long review texts.
const maxLine = 1 << 20

type Store struct{ path string }

func New(path string) *Store { return &Store{path: path} }

func (s *Store) Name() string { return "textfile" }

func (s *Store) Path() string { return s.path }

// Load reads every non-blank line in file order. A missing file is an empty
// store. On the first undecodable line it returns the records before it and a
// *domain.DecodeError carrying the line number.
func (s *Store) Load(ctx context.Context) ([]domain.Review, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	var out []domain.Review
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return out, err
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := domain.DecodeLine(line)
		if err != nil {
			var de *domain.DecodeError
			if errors.As(err, &de) {
				de.Line = n
			}
			return out, fmt.Errorf("%s: %w", s.path, err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read %s: %w", s.path, err)
	}
	return out, nil
}

// Save replaces the file with rs. The new contents go to a temp file in the
// same directory which is then renamed over the target.
func (s *Store) Save(ctx context.Context, rs []domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	for _, r := range rs {
		if _, err := w.WriteString(domain.EncodeLine(r) + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", tmpName, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

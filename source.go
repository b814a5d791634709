package pgmig

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/pkg/errors"
)

// skipHash stored in the hash column disables verification for that row.
const skipHash = "skip"

// source reads migration files from a directory of a filesystem.
type source struct {
	fs  fs.FS
	dir string
}

func newSource(filesystem fs.FS, dir string) *source {
	if dir == "" {
		dir = "."
	}
	return &source{fs: filesystem, dir: dir}
}

// filenames returns every file in the directory in lexicographic byte order.
// "10-a.sql" sorts before "2-b.sql"; callers zero-pad or date-prefix names.
func (s *source) filenames() ([]string, error) {
	entries, err := fs.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migrations directory %s", s.dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

func (s *source) read(filename string) (MigrationFile, error) {
	content, err := fs.ReadFile(s.fs, path.Join(s.dir, filename))
	if err != nil {
		return MigrationFile{}, fmt.Errorf("%w [%s]: %w", ErrFileRead, filename, err)
	}

	return MigrationFile{Filename: filename, Content: content}, nil
}

func (f MigrationFile) Hash() string {
	return calculateHash(f.Filename, f.Content)
}

// calculateHash returns the hex MD5 digest of filename followed by content.
func calculateHash(filename string, content []byte) string {
	h := md5.New()
	h.Write([]byte(filename))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

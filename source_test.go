package pgmig

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilenames(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		dir   string
		want  []string
	}{
		{
			name: "lexicographic not numeric",
			files: fstest.MapFS{
				"2-b.sql":  {Data: []byte("SELECT 2;")},
				"10-a.sql": {Data: []byte("SELECT 10;")},
				"1-c.sql":  {Data: []byte("SELECT 1;")},
			},
			want: []string{"1-c.sql", "10-a.sql", "2-b.sql"},
		},
		{
			name: "every file regardless of extension",
			files: fstest.MapFS{
				"20240102_b.sql": {Data: []byte("SELECT 2;")},
				"20240101_a.sql": {Data: []byte("SELECT 1;")},
				"README":         {Data: []byte("notes")},
			},
			want: []string{"20240101_a.sql", "20240102_b.sql", "README"},
		},
		{
			name: "directories skipped",
			files: fstest.MapFS{
				"001.sql":     {Data: []byte("SELECT 1;")},
				"old/000.sql": {Data: []byte("SELECT 0;")},
			},
			want: []string{"001.sql"},
		},
		{
			name: "subdirectory of the filesystem",
			files: fstest.MapFS{
				"db/migrations/002.sql": {Data: []byte("SELECT 2;")},
				"db/migrations/001.sql": {Data: []byte("SELECT 1;")},
				"db/seed.sql":           {Data: []byte("SELECT 0;")},
			},
			dir:  "db/migrations",
			want: []string{"001.sql", "002.sql"},
		},
		{
			name:  "empty directory",
			files: fstest.MapFS{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := newSource(tt.files, tt.dir).filenames()
			require.NoError(t, err)
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSourceFilenamesMissingDirectory(t *testing.T) {
	_, err := newSource(fstest.MapFS{}, "missing").filenames()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSourceRead(t *testing.T) {
	src := newSource(fstest.MapFS{
		"db/001_init.sql": {Data: []byte("CREATE TABLE a (id int);")},
	}, "db")

	file, err := src.read("001_init.sql")
	require.NoError(t, err)
	assert.Equal(t, "001_init.sql", file.Filename)
	assert.Equal(t, "CREATE TABLE a (id int);", string(file.Content))

	_, err = src.read("002_missing.sql")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "[002_missing.sql]")
}

func TestCalculateHash(t *testing.T) {
	assert.Equal(t, "d387b5342f926c5ccfd2886b6529b000",
		calculateHash("001_init.sql", []byte("CREATE TABLE a (id int);")))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", calculateHash("", nil))

	// The filename takes part in the digest.
	assert.NotEqual(t,
		calculateHash("001_a.sql", []byte("SELECT 1;")),
		calculateHash("001_b.sql", []byte("SELECT 1;")))

	file := MigrationFile{Filename: "001_init.sql", Content: []byte("CREATE TABLE a (id int);")}
	assert.Equal(t, "d387b5342f926c5ccfd2886b6529b000", file.Hash())
}

func TestMigrationRecordSkipped(t *testing.T) {
	tests := []struct {
		hash string
		want bool
	}{
		{"skip", true},
		{"SKIP", true},
		{"sKiP", true},
		{"skipped", false},
		{"", false},
		{"d387b5342f926c5ccfd2886b6529b000", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MigrationRecord{Hash: tt.hash}.Skipped(), tt.hash)
	}
}

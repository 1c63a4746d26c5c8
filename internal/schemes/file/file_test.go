package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

func writeFile(t *testing.T, root, name string, data []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func newRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "motd.txt", []byte("hello\n"))
	writeFile(t, root, "empty.bin", nil)
	writeFile(t, root, "docs/a.md", []byte("# a"))
	writeFile(t, root, "docs/deep/b.md", []byte("# b"))
	return root
}

func fetch(t *testing.T, s *Scheme, raw string) (resource.Response, bool) {
	t.Helper()
	var (
		got       resource.Response
		delivered bool
	)
	s.Fetch(context.Background(), resource.MustParse(raw), func(resp resource.Response) {
		got, delivered = resp, true
	})
	assert.False(t, delivered, "delivery must wait for poll")
	s.OnPoll(context.Background())
	return got, delivered
}

func TestFetchFile(t *testing.T) {
	s := New(newRoot(t), nil)

	resp, ok := fetch(t, s, "file:///motd.txt")
	require.True(t, ok)
	assert.Equal(t, "hello\n", resp.Text())
	assert.Contains(t, resp.MIME, "text/plain")
	assert.Equal(t, "motd.txt", resp.Get("path"))
}

func TestFetchEmptyFileCompletesWithNoData(t *testing.T) {
	s := New(newRoot(t), nil)

	resp, ok := fetch(t, s, "file:///empty.bin")
	require.True(t, ok)
	assert.True(t, resp.Empty())
}

func TestFetchMissingFileNeverCompletes(t *testing.T) {
	s := New(newRoot(t), nil)

	_, ok := fetch(t, s, "file:///nope.txt")
	assert.False(t, ok)
	assert.Zero(t, s.Pending())
}

func TestFetchRejectsEscape(t *testing.T) {
	s := New(newRoot(t), nil)

	_, err := s.Read(context.Background(), resource.MustParse("file:///../etc/passwd"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestFetchDirectoryListing(t *testing.T) {
	s := New(newRoot(t), nil)

	tests := []struct {
		url  string
		want []string
	}{
		{"file:///", []string{"docs/", "empty.bin", "motd.txt"}},
		{"file:///docs/", []string{"a.md", "deep/"}},
		{"file:///docs?recursive=1", []string{"a.md", "deep/", "deep/b.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			resp, err := s.Read(context.Background(), resource.MustParse(tt.url))
			require.NoError(t, err)
			assert.Equal(t, "dir", resp.Get("kind"))
			assert.Equal(t, tt.want, lines(resp.Text()))
		})
	}
}

func TestFetchGlob(t *testing.T) {
	s := New(newRoot(t), nil)

	resp, err := s.Read(context.Background(), resource.MustParse("file:///**/*.md"))
	require.NoError(t, err)
	assert.Equal(t, "glob", resp.Get("kind"))
	assert.Equal(t, []string{"docs/a.md", "docs/deep/b.md"}, lines(resp.Text()))
}

func TestFetchCompressed(t *testing.T) {
	root := newRoot(t)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte("gzipped"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	writeFile(t, root, "a.txt.gz", gz.Bytes())

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = zw.Write([]byte("zstandard"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	writeFile(t, root, "b.txt.zst", zs.Bytes())

	s := New(root, nil)

	resp, err := s.Read(context.Background(), resource.MustParse("file:///a.txt.gz"))
	require.NoError(t, err)
	assert.Equal(t, "gzipped", resp.Text())
	assert.Equal(t, "gzip", resp.Get("encoding"))

	resp, err = s.Read(context.Background(), resource.MustParse("file:///b.txt.zst"))
	require.NoError(t, err)
	assert.Equal(t, "zstandard", resp.Text())
	assert.Equal(t, "zstd", resp.Get("encoding"))
}

func lines(s string) []string {
	var out []string
	for _, l := range bytes.Split([]byte(s), []byte("\n")) {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	return out
}

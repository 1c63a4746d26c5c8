// Package file serves the file: scheme from a directory on the host.
//
// file:///path reads a file. Files ending in .gz or .zst are decompressed
// transparently. A directory yields a newline-separated listing, with
// subdirectories marked by a trailing slash; add ?recursive=1 to descend.
// A path containing glob metacharacters (doublestar syntax, including **)
// yields the matching paths.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
)

// ErrOutsideRoot is returned for paths that would leave the root.
var ErrOutsideRoot = errors.New("path escapes root")

// Scheme is the file: module.
type Scheme struct {
	*schemes.Base
	root   string
	fsys   fs.FS
	logger *logging.Logger
}

// New serves root.
func New(root string, logger *logging.Logger) *Scheme {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheme{
		Base:   schemes.NewBase("file", "file"),
		root:   root,
		fsys:   os.DirFS(root),
		logger: logger.Named("file"),
	}
}

// Fetch reads the identified file, directory or glob and queues the result.
func (s *Scheme) Fetch(ctx context.Context, url resource.URL, deliver module.Deliver) {
	resp, err := s.Read(ctx, url)
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", url.String()), zap.Error(err))
		return
	}
	s.Complete(deliver, resp)
}

// Read resolves url synchronously.
func (s *Scheme) Read(ctx context.Context, url resource.URL) (resource.Response, error) {
	name := strings.TrimRight(url.Path(), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return resource.Response{}, fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}

	if strings.ContainsAny(name, "*?[{") {
		return s.glob(url, name)
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return resource.Response{}, err
	}
	if info.IsDir() {
		recursive, _ := strconv.ParseBool(url.Query().Get("recursive"))
		return s.list(ctx, url, name, recursive)
	}
	return s.readFile(url, name)
}

func (s *Scheme) readFile(url resource.URL, name string) (resource.Response, error) {
	f, err := s.fsys.Open(name)
	if err != nil {
		return resource.Response{}, err
	}
	defer f.Close()

	var r io.Reader = f
	encoding := ""
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return resource.Response{}, fmt.Errorf("gzip %s: %w", name, err)
		}
		defer gz.Close()
		r, encoding = gz, "gzip"
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return resource.Response{}, fmt.Errorf("zstd %s: %w", name, err)
		}
		defer zr.Close()
		r, encoding = zr, "zstd"
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return resource.Response{}, fmt.Errorf("read %s: %w", name, err)
	}

	meta := map[string]string{"path": name, "kind": "file"}
	if encoding != "" {
		meta["encoding"] = encoding
	}
	return resource.Response{
		URL:  url,
		Data: data,
		MIME: mimetype.Detect(data).String(),
		Meta: meta,
	}, nil
}

func (s *Scheme) list(ctx context.Context, url resource.URL, name string, recursive bool) (resource.Response, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(name))

	var (
		mu      sync.Mutex
		entries []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}
		if p == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		entry := filepath.ToSlash(rel)
		if d.IsDir() {
			entry += "/"
		}

		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()

		if d.IsDir() && !recursive {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return resource.Response{}, fmt.Errorf("list %s: %w", name, err)
	}

	sort.Strings(entries)
	return listing(url, name, "dir", entries), nil
}

func (s *Scheme) glob(url resource.URL, pattern string) (resource.Response, error) {
	if !doublestar.ValidatePattern(pattern) {
		return resource.Response{}, fmt.Errorf("glob %q: %w", pattern, doublestar.ErrBadPattern)
	}
	matches, err := doublestar.Glob(s.fsys, pattern)
	if err != nil {
		return resource.Response{}, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return listing(url, pattern, "glob", matches), nil
}

func listing(url resource.URL, name, kind string, entries []string) resource.Response {
	var data []byte
	if len(entries) > 0 {
		data = []byte(strings.Join(entries, "\n") + "\n")
	}
	return resource.Response{
		URL:  url,
		Data: data,
		MIME: "text/plain; charset=utf-8",
		Meta: map[string]string{
			"path":    name,
			"kind":    kind,
			"entries": strconv.Itoa(len(entries)),
		},
	}
}

package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/frenebo/layer-lang/lang"
)

// Command output and input. Tests replace these.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	sourceFilesKey struct{}
	searchPathKey  struct{}

	sourceFiles struct {
		multi    io.Reader
		read     []io.Reader
		names    []string
		hasStdin bool
	}

	// SourceFiles is the concatenation of the prelude sources. A newline is
	// inserted after each one so that a trailing comment cannot swallow the
	// first line of the next.
	SourceFiles interface {
		IsZero() bool
		Names() []string
		Stdin() io.Reader
		io.Reader
		io.WriterTo
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.read) == 0 && !s.hasStdin }

// Names returns the resolved paths of the sources in read order. Stdin is
// named "-".
func (s *sourceFiles) Names() []string { return s.names }

// Stdin returns the stdin reader if stdin was included as a source, or nil
// otherwise.
func (s *sourceFiles) Stdin() io.Reader {
	if s.hasStdin {
		return stdin
	}

	return nil
}

func (s *sourceFiles) reader() io.Reader {
	if s.multi == nil {
		readers := s.read
		if s.hasStdin {
			readers = append(readers, stdin)
		}

		joined := make([]io.Reader, 0, 2*len(readers))
		for _, r := range readers {
			joined = append(joined, r, strings.NewReader("\n"))
		}

		s.multi = io.MultiReader(joined...)
	}

	return s.multi
}

// Read implements io.Reader by reading from all source files in order,
// including stdin if present.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	return s.reader().Read(p)
}

// WriteTo implements io.WriterTo by writing all source files to w in order,
// including stdin if present.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, s.reader())
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context containing the prelude
// sources: programs executed before each command's own program to seed its
// root scope.
//
// Readers are deduplicated by device/inode pair. All occurrences of "-" are
// replaced with a single stdin reader placed last.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(sources))
}

func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.read = make([]io.Reader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		reader, path, ok := openUniqueFile(src, seen)
		if !ok {
			continue
		}

		srcs.read = append(srcs.read, reader)
		srcs.names = append(srcs.names, path)
	}

	// Stdin may have been included via "-" or as a named file.
	_, srcs.hasStdin = seen[stdinKey]
	if srcs.hasStdin {
		srcs.names = append(srcs.names, stdinSource)
	}

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path unless a file with the same device
// and inode was opened before.
func openUniqueFile(
	path string,
	seen map[fileKey]struct{},
) (io.Reader, string, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, "", false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, "", false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, "", false
	}

	if _, exists := seen[key]; exists {
		return nil, "", false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, "", false
	}

	return file, resolved, true
}

// makeFileKey creates a fileKey from os.FileInfo.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

func sourceFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return r
}

// prelude executes the prelude sources stored in ctx and returns the
// resulting root scope. Without preludes the scope is empty.
func prelude(ctx context.Context, opts ...lang.Option) (*lang.Scope, error) {
	src := sourceFilesFrom(ctx)
	if src == nil || src.IsZero() {
		return lang.NewScope(nil), nil
	}

	names := slog.Any("sources", src.Names())

	tree, err := lang.ParseReader(ctx, src, opts...)
	if err != nil {
		return nil, ErrPrelude.With(names).Wrap(err)
	}

	scope, err := lang.Execute(ctx, tree, opts...)
	if err != nil {
		return nil, ErrPrelude.With(names).Wrap(err)
	}

	return scope, nil
}

// WithSearchPath returns a new context.Context containing the directories
// searched for program files that are not found relative to the working
// directory.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// resolveSource returns the path of the program file called name. The
// working directory is tried first, then each directory of the search path.
// In each location the name is tried as given and with [Extension].
func resolveSource(ctx context.Context, name string) (string, error) {
	if name == stdinSource {
		return name, nil
	}

	candidates := []string{name}
	if filepath.Ext(name) != Extension {
		candidates = append(candidates, name+Extension)
	}

	dirs := []string{""}
	if !filepath.IsAbs(name) {
		dirs = append(dirs, searchPathFrom(ctx)...)
	}

	for _, dir := range dirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)

			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	return "", ErrSourceNotFound.With(
		slog.String("name", name),
		slog.Any("path", searchPathFrom(ctx)),
	)
}

// readSource resolves name and returns its contents with the resolved path.
func readSource(ctx context.Context, name string) (src, path string, err error) {
	path, err = resolveSource(ctx, name)
	if err != nil {
		return "", "", err
	}

	var data []byte

	if path == stdinSource {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", ErrSourceNotFound.With(slog.String("name", name)).Wrap(err)
		}

		return "", "", ErrOpenSource.With(slog.String("path", path)).Wrap(err)
	}

	return string(data), path, nil
}

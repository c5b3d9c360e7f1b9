package lang

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// storeVersion is bumped whenever the on-disk encoding of [Node] changes.
const storeVersion = 1

const storeExt = ".tree"

// maxStoredNesting is the largest CBOR nesting depth the decoder accepts.
// Deeper trees are stored but always load as misses.
const maxStoredNesting = 65535

// storedTree is the on-disk record of one parse tree.
type storedTree struct {
	Tree    *Node `cbor:"2,keyasint"`
	Version int   `cbor:"1,keyasint"`
}

// TreeStore persists parse trees as canonical CBOR files in a directory,
// keyed by a digest of the source and the options that shaped the parse.
// A TreeStore is safe for concurrent use by multiple processes: files are
// written to a temporary name and renamed into place.
type TreeStore struct {
	enc cbor.EncMode
	dec cbor.DecMode
	dir string
}

// NewTreeStore returns a store rooted at dir, creating it if needed.
func NewTreeStore(dir string) (*TreeStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ErrCacheStore.Wrap(err).With(slog.String("dir", dir))
	}

	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, ErrCacheStore.Wrap(err)
	}

	// Every node nests a map and a children array, and statement sequences
	// recurse once per statement.
	dec, err := cbor.DecOptions{MaxNestedLevels: maxStoredNesting}.DecMode()
	if err != nil {
		return nil, ErrCacheStore.Wrap(err)
	}

	return &TreeStore{enc: enc, dec: dec, dir: dir}, nil
}

// Dir returns the directory holding the store's files.
func (s *TreeStore) Dir() string { return s.dir }

// Key returns the store key of source parsed with opts.
func (s *TreeStore) Key(source string, opts ...Option) string {
	k := makeOptions(opts...).key()

	h := blake3.New()
	fmt.Fprintf(h, "v%d %x %s %d\n", storeVersion, k.Grammar, k.Engine, k.MaxDepth)
	_, _ = h.Write([]byte(source))

	return hex.EncodeToString(h.Sum(nil))
}

func (s *TreeStore) path(key string) string {
	return filepath.Join(s.dir, key+storeExt)
}

// Load returns the tree stored under key. A missing, stale or corrupt entry
// reports ok == false with a nil error; only I/O failures are errors.
func (s *TreeStore) Load(key string) (tree *Node, ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	var rec storedTree
	if err := s.dec.Unmarshal(data, &rec); err != nil {
		return nil, false, nil
	}

	if rec.Version != storeVersion || !rec.Tree.valid() {
		return nil, false, nil
	}

	// Touch the entry so Prune keeps recently used trees.
	now := time.Now()
	_ = os.Chtimes(s.path(key), now, now)

	return rec.Tree, true, nil
}

// Save stores tree under key, replacing any previous entry.
func (s *TreeStore) Save(key string, tree *Node) error {
	data, err := s.enc.Marshal(storedTree{Tree: tree, Version: storeVersion})
	if err != nil {
		return ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	if err := tmp.Close(); err != nil {
		return ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return ErrCacheStore.Wrap(err).With(slog.String("key", key))
	}

	return nil
}

// Prune deletes entries not used within maxAge and returns how many were
// removed.
func (s *TreeStore) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, ErrCacheStore.Wrap(err).With(slog.String("dir", s.dir))
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), storeExt) {
			continue
		}

		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}

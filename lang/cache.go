package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parse results keyed by source and options hash.
// Trees are immutable, so a cached tree is shared by every caller.
var globalCache sync.Map

// entry holds one cached parse. The first caller parses; concurrent callers
// for the same key wait on once.
type entry struct {
	once sync.Once
	tree *Node
	err  error
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(key optionsKey) uint64 {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(key)

	return xxh3.Hash(buf.Bytes())
}

// cacheKey combines the source hash with the options hash.
func cacheKey(source string, o options) (key string, sourceHash, optsHash uint64) {
	sourceHash = xxh3.HashString(source)
	optsHash = hashOptions(o.key())

	return strconv.FormatUint(sourceHash^optsHash, 36), sourceHash, optsHash
}

// ParseCached lexes and parses source, reusing the tree of an earlier call
// with the same source and parse options. Failures are cached too.
func ParseCached(
	ctx context.Context,
	source string,
	opts ...Option,
) (*Node, error) {
	o := makeOptions(opts...)

	key, sourceHash, optsHash := cacheKey(source, o)

	value, hit := globalCache.LoadOrStore(key, new(entry))

	cached, ok := value.(*entry)
	if !ok {
		return nil, ErrCacheStore.With(slog.String("issue", "invalid entry type in cache"))
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	cached.once.Do(func() {
		cached.tree, cached.err = ParseString(ctx, source, opts...)
		if cached.err != nil {
			cached.err = WrapError(cached.err).With(slog.Int("source_length", len(source)))
		}
	})

	// A cancelled parse says nothing about the source. Let the next caller
	// retry.
	if errors.Is(cached.err, ErrCanceled) {
		globalCache.CompareAndDelete(key, cached)
	}

	return cached.tree, cached.err
}

// ParseReader reads all of r and parses it with [ParseCached].
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Node, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	makeOptions(opts...).logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return ParseCached(ctx, string(data), opts...)
}

// ClearCache removes all cached parse results.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Clear()
}

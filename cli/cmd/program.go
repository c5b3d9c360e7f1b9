package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// treeStoreDir is the directory under the cache directory holding stored
// parse trees.
const treeStoreDir = "trees"

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// openStore returns the parse tree store in the cache directory, or nil if
// the cache directory is unknown or unusable.
func openStore(ctx context.Context) *lang.TreeStore {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return nil
	}

	dir, ok := ktx.Model.Vars()[CacheIdentifier]
	if !ok || dir == "" {
		return nil
	}

	store, err := lang.NewTreeStore(filepath.Join(dir, treeStoreDir))
	if err != nil {
		log.WarnContext(ctx, "parse tree store disabled", slog.Any("error", err))

		return nil
	}

	return store
}

// loadTree parses src, consulting store first when it is not nil. Store
// failures are logged and otherwise ignored.
func loadTree(
	ctx context.Context,
	store *lang.TreeStore,
	src string,
	opts ...lang.Option,
) (*lang.Node, error) {
	if store == nil {
		return lang.ParseCached(ctx, src, opts...)
	}

	key := store.Key(src, opts...)

	tree, ok, err := store.Load(key)
	if err != nil {
		log.WarnContext(ctx, "load stored tree", slog.Any("error", err))
	}

	if ok {
		log.DebugContext(ctx, "stored tree hit", slog.String("key", key))

		return tree, nil
	}

	tree, err = lang.ParseCached(ctx, src, opts...)
	if err != nil {
		return nil, err
	}

	if err := store.Save(key, tree); err != nil {
		log.WarnContext(ctx, "save stored tree", slog.Any("error", err))
	}

	return tree, nil
}

// writeBindings renders the bindings of scope to w.
func writeBindings(
	ctx context.Context,
	w io.Writer,
	scope *lang.Scope,
	format string,
	indent int,
) error {
	var err error

	switch format {
	case formatJSON:
		err = scope.FormatJSON(ctx, w, indent)
	case formatYAML:
		err = scope.FormatYAML(ctx, w, indent)
	case formatText, "":
		err = scope.Format(ctx, w)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}

	if err != nil {
		return ErrWriteOutput.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}

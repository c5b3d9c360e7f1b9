package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tevino/abool/v2"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// Run executes programs and prints the bindings left in the root scope.
//
// Files are executed in order against one root scope seeded by the prelude
// sources, so later files see the bindings of earlier ones.
type Run struct {
	Limits `embed:""`

	Format  string   `default:"text" enum:"text,json,yaml" help:"Output format of the resulting bindings (${enum})." short:"o"`
	Indent  int      `default:"2"                          help:"Indent width of json and yaml output."`
	NoCache bool     `                                     help:"Do not use the on-disk parse tree store."`
	Watch   bool     `                                     help:"Run again whenever a program file changes."      short:"w"`
	Files   []string `arg:"" default:"-"                   help:"Program files, or '-' for stdin."                name:"file" optional:""`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := r.options()
	if err != nil {
		return err
	}

	base, err := prelude(ctx, opts...)
	if err != nil {
		return err
	}

	var store *lang.TreeStore
	if !r.NoCache {
		store = openStore(ctx)
	}

	if r.Watch {
		return r.watch(ctx, base, store, opts)
	}

	return r.once(ctx, base, store, opts)
}

// once runs every file once against a copy of base.
func (r *Run) once(
	ctx context.Context,
	base *lang.Scope,
	store *lang.TreeStore,
	opts []lang.Option,
) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	scope := base.Clone()
	opts = append(slices.Clone(opts), lang.WithScope(scope))

	for _, name := range r.Files {
		src, path, err := readSource(ctx, name)
		if err != nil {
			return err
		}

		tree, err := loadTree(ctx, store, src, opts...)
		if err != nil {
			return lang.WrapError(err).With(slog.String("file", path))
		}

		log.DebugContext(ctx, "execute",
			slog.String("file", path),
			slog.Int("tokens", tree.Consumed),
		)

		if _, err := lang.Execute(ctx, tree, opts...); err != nil {
			return lang.WrapError(err).With(slog.String("file", path))
		}
	}

	return writeBindings(ctx, stdout, scope, r.Format, r.Indent)
}

// watch runs the files once and then again after each change until ctx is
// done. A change arriving while a run is in progress is dropped.
func (r *Run) watch(
	ctx context.Context,
	base *lang.Scope,
	store *lang.TreeStore,
	opts []lang.Option,
) error {
	files := make(map[string]struct{}, len(r.Files))
	dirs := make(map[string]struct{})

	for _, name := range r.Files {
		path, err := resolveSource(ctx, name)
		if err != nil {
			return err
		}

		if path == stdinSource {
			return ErrWatch.Wrap(ErrWatchStdin)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return ErrWatch.With(slog.String("file", path)).Wrap(err)
		}

		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer watcher.Close()

	// Watch directories rather than files: editors commonly replace a file
	// by renaming a new one over it, which ends a watch on the old inode.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return ErrWatch.With(slog.String("dir", dir)).Wrap(err)
		}
	}

	var (
		running = abool.NewBool(false)
		wg      sync.WaitGroup
	)

	defer wg.Wait()

	trigger := func(reason string) {
		if !running.SetToIf(false, true) {
			log.DebugContext(ctx, "run in progress, change ignored",
				slog.String("reason", reason))

			return
		}

		wg.Go(func() {
			defer running.UnSet()

			if err := r.once(ctx, base, store, opts); err != nil {
				log.ErrorContext(ctx, "run failed", slog.Any("error", err))
			}
		})
	}

	trigger("start")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if _, watched := files[filepath.Clean(ev.Name)]; !watched {
				continue
			}

			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				log.DebugContext(ctx, "source changed",
					slog.String("file", ev.Name),
					slog.String("op", ev.Op.String()),
				)
				trigger(ev.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}

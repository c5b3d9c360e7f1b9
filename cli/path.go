package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/frenebo/layer-lang/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config"

// searchPathVar names the environment variable listing program directories.
const searchPathVar = pkg.EnvPrefix + "PATH"

var defaultDirMode os.FileMode = 0o700

// basePrefix is the name of the configuration and cache directories.
//
// It is the base name of the executable without extension, except that the
// dlv debugger's default output name maps to [pkg.Name] and leading dots are
// removed.
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		id = regexp.MustCompile(`^__debug_bin\d+$`).ReplaceAllString(id, pkg.Name)
		id = regexp.MustCompile(`^\.+`).ReplaceAllString(id, "")

		if id == "" {
			id = pkg.Name
		}

		return id
	},
)

// userDir returns dir from the platform lookup, or home/fallback, or the
// working directory, each joined with [basePrefix].
func userDir(lookup func() (string, error), fallback string) string {
	dir, err := lookup()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// cacheDir holds the parse tree store, profiles and REPL history.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// searchPath returns the directories searched for program files: dirs from
// the command line in order, then the entries of $LAYER_PATH. Duplicates keep
// their first position; entries that are not existing directories are
// dropped.
func searchPath(dirs []string) []string {
	delim := string(os.PathListSeparator)

	// mung prepends prefix items last-first; one pre-delimited item keeps
	// the command-line order.
	return slices.Collect(mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(searchPathVar))...),
		mung.WithDelim(delim),
		mung.WithPrefixItems(strings.Join(dirs, delim)),
		mung.WithFilter(isDir),
	).Filtered())
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

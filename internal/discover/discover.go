// Package discover expands command-line package patterns into directories.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
)

var skipDirs = map[string]struct{}{
	"vendor":       {},
	"testdata":     {},
	"node_modules": {},
}

// Expand turns arguments into package directories. "dir/..." walks dir,
// anything else names one directory; no arguments means the working
// directory. Results are absolute, unique and sorted.
func Expand(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	seen := map[string]bool{}
	var out []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}

	for _, arg := range args {
		root, recursive := strings.CutSuffix(filepath.ToSlash(arg), "/...")
		if arg == "..." {
			root, recursive = ".", true
		}
		abs, err := filepath.Abs(filepath.FromSlash(root))
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", arg)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %s", arg)
		}
		if !info.IsDir() {
			return nil, errors.WithHint(errors.Newf("%s is not a directory", arg), "pass package directories or dir/...")
		}
		if !recursive {
			add(abs)
			continue
		}
		dirs, err := Walk(abs)
		if err != nil {
			return nil, err
		}
		for _, d := range dirs {
			add(d)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Walk lists the directories under root holding Go files. vendor,
// testdata, hidden and _-prefixed directories, nested modules and paths
// ignored by .gitignore are skipped.
func Walk(root string) ([]string, error) {
	m := newMatcher(root)
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			name := d.Name()
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
				return filepath.SkipDir
			}
			if m.ignored(path, true) {
				return filepath.SkipDir
			}
		}
		if hasGoFiles(path, m) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	logger.Debugw("Discovered packages", logger.FieldDir, root, logger.FieldCount, len(out))
	return out, nil
}

func hasGoFiles(dir string, m *matcher) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		if !m.ignored(filepath.Join(dir, e.Name()), false) {
			return true
		}
	}
	return false
}

// matcher applies .gitignore rules. Inside a git work tree every
// .gitignore of the tree is honored through go-git; elsewhere only the
// .gitignore at the walk root is.
type matcher struct {
	base string
	git  gitignore.Matcher
	file *ignore.GitIgnore
}

func newMatcher(root string) *matcher {
	m := &matcher{base: root}
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if wt, err := repo.Worktree(); err == nil {
			base := wt.Filesystem.Root()
			patterns, err := gitignore.ReadPatterns(osfs.New(base), nil)
			if err == nil {
				m.base, m.git = base, gitignore.NewMatcher(patterns)
				return m
			}
		}
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		m.file = gi
	}
	return m
}

func (m *matcher) ignored(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	switch {
	case m.git != nil:
		return m.git.Match(strings.Split(rel, "/"), isDir)
	case m.file != nil:
		if isDir {
			rel += "/"
		}
		return m.file.MatchesPath(rel)
	}
	return false
}

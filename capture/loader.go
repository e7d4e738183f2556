package capture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/tools/go/packages"

	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
	"github.com/teranos/portrait/model"
)

// Resolver maps import paths to package directories
type Resolver interface {
	Dir(fromDir, importPath string) (string, error)
}

// PackagesResolver resolves import paths with the go command
type PackagesResolver struct{}

func (PackagesResolver) Dir(fromDir, importPath string) (string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedFiles, Dir: fromDir}
	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUnresolved, "load %s: %s", importPath, err.Error())
	}
	for _, p := range pkgs {
		for _, files := range [][]string{p.GoFiles, p.OtherFiles, p.IgnoredFiles} {
			if len(files) > 0 {
				return filepath.Dir(files[0]), nil
			}
		}
	}
	return "", errors.Wrapf(errors.ErrUnresolved, "package %s has no files", importPath)
}

// StaticResolver resolves import paths from a fixed table
type StaticResolver map[string]string

func (r StaticResolver) Dir(_, importPath string) (string, error) {
	if dir, ok := r[importPath]; ok {
		return dir, nil
	}
	return "", errors.Wrapf(errors.ErrUnresolved, "unknown package %s", importPath)
}

// Loader finds templates in companion files. Parsed directories are kept in
// an LRU cache; companions rendered during the current run are layered over
// what is on disk.
type Loader struct {
	resolver Resolver
	cache    *lru.Cache[string, []*Companion]

	mu      sync.Mutex
	overlay map[string]map[string]*Companion
}

// NewLoader creates a loader caching up to size directories. A size of zero
// disables the cache.
func NewLoader(r Resolver, size int) *Loader {
	if r == nil {
		r = PackagesResolver{}
	}
	l := &Loader{resolver: r, overlay: map[string]map[string]*Companion{}}
	if size > 0 {
		// only fails for non-positive sizes
		l.cache, _ = lru.New[string, []*Companion](size)
	}
	return l
}

// Overlay registers a companion produced in this run under its path
func (l *Loader) Overlay(path string, c *Companion) {
	dir := filepath.Clean(filepath.Dir(path))
	l.mu.Lock()
	if l.overlay[dir] == nil {
		l.overlay[dir] = map[string]*Companion{}
	}
	l.overlay[dir][filepath.Base(path)] = c
	l.mu.Unlock()
}

// Companions returns the companions of dir, overlay first
func (l *Loader) Companions(dir string) ([]*Companion, error) {
	dir = filepath.Clean(dir)
	disk, err := l.disk(dir)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	over := l.overlay[dir]
	names := make([]string, 0, len(over))
	for name := range over {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Companion, 0, len(names)+len(disk))
	shadowed := map[string]bool{}
	for _, name := range names {
		out = append(out, over[name])
		shadowed[name] = true
	}
	l.mu.Unlock()

	for _, dc := range disk {
		if !shadowed[dc.name] {
			out = append(out, dc.Companion)
		}
	}
	return out, nil
}

type diskCompanion struct {
	*Companion
	name string
}

func (l *Loader) disk(dir string) ([]diskCompanion, error) {
	if l.cache != nil {
		if cs, ok := l.cache.Get(dir); ok {
			return wrapNamed(cs), nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	var cs []*Companion
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), CompanionSuffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		if !IsCompanion(src) {
			continue
		}
		c, err := ParseCompanion(path, src)
		if err != nil {
			return nil, err
		}
		c.path = e.Name()
		cs = append(cs, c)
	}
	logger.Debugw("Loaded companions", logger.FieldDir, dir, logger.FieldCount, len(cs))

	if l.cache != nil {
		l.cache.Add(dir, cs)
	}
	return wrapNamed(cs), nil
}

func wrapNamed(cs []*Companion) []diskCompanion {
	out := make([]diskCompanion, len(cs))
	for i, c := range cs {
		out[i] = diskCompanion{Companion: c, name: c.path}
	}
	return out
}

// Find returns the template named name in dir
func (l *Loader) Find(dir, name string) (*Template, error) {
	cs, err := l.Companions(dir)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		if t, ok := c.Lookup(name); ok {
			return t, nil
		}
	}
	return nil, errors.WithHint(
		errors.Wrapf(errors.ErrNoPortrait, "no portrait for %s in %s", name, dir),
		"annotate the interface with //portrait:make and run portrait make")
}

// Locate finds the directory declaring the interface ref points to from
// site. modPath overrides the lookup: a relative or absolute directory, or an
// import path.
func (l *Loader) Locate(site *model.Site, ref model.InterfaceRef, modPath string) (string, error) {
	switch {
	case modPath != "":
		if filepath.IsAbs(modPath) {
			return modPath, nil
		}
		if strings.HasPrefix(modPath, ".") {
			return filepath.Join(site.Dir, modPath), nil
		}
		return l.resolver.Dir(site.Dir, modPath)
	case ref.Qualifier == "":
		return site.Dir, nil
	}
	path, ok := site.ImportPath(ref.Qualifier)
	if !ok {
		return "", errors.Wrapf(errors.ErrUnresolved, "%s is not imported", ref.Qualifier)
	}
	return l.resolver.Dir(site.Dir, path)
}

// Load locates and finds the template for ref
func (l *Loader) Load(site *model.Site, ref model.InterfaceRef, modPath string) (*Template, error) {
	dir, err := l.Locate(site, ref, modPath)
	if err != nil {
		return nil, err
	}
	return l.Find(dir, ref.Name)
}

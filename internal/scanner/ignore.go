package scanner

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreRules holds the compiled ignore files found while walking, each
// anchored at the directory that contains it.
type ignoreRules struct {
	rules []ignoreRule
}

type ignoreRule struct {
	base string // slash-separated directory relative to the scan root; "" for the root
	gi   *ignore.GitIgnore
}

// load compiles the ignore file in dir, if there is one. rel is dir relative
// to the scan root.
func (r *ignoreRules) load(dir, rel, name string) error {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	gi, err := ignore.CompileIgnoreFile(p)
	if err != nil {
		return fmt.Errorf("reading %s: %w", p, err)
	}
	if rel == "." {
		rel = ""
	}
	r.rules = append(r.rules, ignoreRule{base: rel, gi: gi})
	return nil
}

// match reports whether relPath is ignored by any loaded file whose
// directory contains it. Directories are tested with a trailing slash so
// "dir/" patterns apply to them.
func (r *ignoreRules) match(relPath string, isDir bool) bool {
	for _, rule := range r.rules {
		sub := relPath
		if rule.base != "" {
			if !strings.HasPrefix(relPath, rule.base+"/") {
				continue
			}
			sub = strings.TrimPrefix(relPath, rule.base+"/")
		}
		if isDir {
			sub += "/"
		}
		if rule.gi.MatchesPath(sub) {
			return true
		}
	}
	return false
}

// excludeMatcher applies doublestar globs to slash-separated paths relative
// to the scan root. A pattern without a slash also matches base names.
type excludeMatcher struct {
	patterns []string
}

func newExcludeMatcher(patterns []string) (*excludeMatcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &excludeMatcher{patterns: patterns}, nil
}

func (m *excludeMatcher) match(relPath string) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, path.Base(relPath)); ok {
				return true
			}
		}
	}
	return false
}

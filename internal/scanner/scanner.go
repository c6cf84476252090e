// Package scanner finds the files ccm can analyse under a directory. It
// respects .ccmignore files with gitignore-style patterns and doublestar
// exclude globs.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string       // Relative path from root
	FullPath string       // Absolute path
	Language cfg.Language // Frontend that handles the file
	Size     int64        // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool           // Skip hidden files and directories (starting with .)
	DefaultExcludes []string       // Directory names never descended into
	Exclude         []string       // Doublestar globs matched against the relative path
	IgnoreFileName  string         // Name of the ignore file (default: .ccmignore)
	Languages       []cfg.Language // Frontends to collect; empty means all
}

// DefaultOptions returns scanner options with sensible defaults. CFG
// documents are left out: a tree usually holds JSON and YAML that are not
// control-flow graphs.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".ccmignore",
		DefaultExcludes: []string{
			"node_modules",
			".git",
			"__pycache__",
			".venv",
			"venv",
			"vendor",
			".hg",
			".svn",
			".tox",
		},
		Languages: []cfg.Language{cfg.LanguageLLVM, cfg.LanguageGo, cfg.LanguagePython},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".ccmignore"
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns the analysable files in path order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	excludes, err := newExcludeMatcher(s.opts.Exclude)
	if err != nil {
		return nil, err
	}

	var (
		files []FileInfo
		rules ignoreRules
	)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			// Unreadable entries are skipped
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if relPath == "." {
			return rules.load(path, relPathSlash, s.opts.IgnoreFileName)
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.isDefaultExcluded(d.Name()) || excludes.match(relPathSlash) || rules.match(relPathSlash, true) {
				return filepath.SkipDir
			}
			return rules.load(path, relPathSlash, s.opts.IgnoreFileName)
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if excludes.match(relPathSlash) || rules.match(relPathSlash, false) {
			return nil
		}

		lang, ok := cfg.DetectLanguage(path)
		if !ok || !s.wants(lang) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Language: lang,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) wants(lang cfg.Language) bool {
	if len(s.opts.Languages) == 0 {
		return true
	}
	for _, l := range s.opts.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// isHidden checks if a file or directory name indicates it's hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

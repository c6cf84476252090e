// Package runner ties the frontends, the analysis, the result cache and the
// history store together for the CLI and the MCP server.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/l3aro/go-cfg-complexity/internal/log"
	"github.com/l3aro/go-cfg-complexity/internal/scanner"
	"github.com/l3aro/go-cfg-complexity/pkg/cache"
	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
	"github.com/l3aro/go-cfg-complexity/pkg/history"
	"github.com/l3aro/go-cfg-complexity/pkg/report"
)

// Options configures a Runner. Nil Cache and History disable them.
type Options struct {
	Analysis complexity.Options
	Cache    *cache.LRUCache
	History  *history.Store
	Scan     scanner.Options
	Logger   log.Logger
	Now      func() time.Time
}

// Runner analyses files.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// File analyses the file at path.
func (r *Runner) File(ctx context.Context, path string) ([]complexity.Result, error) {
	if err := cfg.CheckSupported(path); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", cfg.ErrInputParse, path, err)
	}
	return r.Bytes(ctx, path, content)
}

// Bytes analyses content as if read from a file called name. Results are
// served from the cache when the same content was analysed before with the
// same options.
func (r *Runner) Bytes(ctx context.Context, name string, content []byte) ([]complexity.Result, error) {
	key := cache.Key(name, content, r.opts.Analysis)

	results, hit := r.lookup(key)
	if hit {
		r.opts.Logger.Debug("cache hit", "source", name, "key", key)
	} else {
		start := time.Now()
		m, err := cfg.LoadBytes(ctx, name, content)
		if err != nil {
			return nil, err
		}
		results, err = complexity.AnalyzeModule(ctx, m, r.opts.Analysis)
		if err != nil {
			return nil, err
		}
		r.opts.Logger.Debug("analysed", "source", name, "functions", len(results), "elapsed", time.Since(start))
		if r.opts.Cache != nil {
			r.opts.Cache.Set(key, name, results)
		}
	}

	if r.opts.History != nil {
		if err := r.opts.History.Record(ctx, name, key, results, r.opts.Now()); err != nil {
			return nil, fmt.Errorf("recording history: %w", err)
		}
	}
	return results, nil
}

func (r *Runner) lookup(key string) ([]complexity.Result, bool) {
	if r.opts.Cache == nil {
		return nil, false
	}
	return r.opts.Cache.Get(key)
}

// Paths analyses each path in order. A directory is scanned for analysable
// files, which are analysed in path order. The first failure stops the run.
func (r *Runner) Paths(ctx context.Context, paths []string) ([]report.Entry, error) {
	var entries []report.Entry

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cfg.ErrInputParse, err)
		}

		files := []string{p}
		if info.IsDir() {
			found, err := scanner.New(r.opts.Scan).Scan(p)
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", p, err)
			}
			r.opts.Logger.Debug("scanned", "root", p, "files", len(found))

			files = files[:0]
			for _, f := range found {
				files = append(files, filepath.Join(p, filepath.FromSlash(f.Path)))
			}
		}

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results, err := r.File(ctx, f)
			if err != nil {
				return nil, err
			}
			for _, res := range results {
				entries = append(entries, report.Entry{Source: f, Result: res})
			}
		}
	}

	return entries, nil
}

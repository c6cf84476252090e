package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/internal/config"
	"github.com/l3aro/go-cfg-complexity/internal/runner"
	"github.com/l3aro/go-cfg-complexity/internal/scanner"
	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
	"github.com/l3aro/go-cfg-complexity/pkg/history"
	"github.com/l3aro/go-cfg-complexity/pkg/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Report the complexity of every function in a file or directory",
	Long: fmt.Sprintf(`Analyzes a file (%s) and prints one line per
function in definition order:

  <function>: Cyclomatic Complexity = <n>

A directory is scanned for .ll, .go and .py files, honouring .ccmignore files
and the configured exclude globs.`, strings.Join(cfg.SupportedExtensions(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "Output format: text, json or prometheus")
	cmd.Flags().Bool("explain", false, "Show terminals, closing edges and the walk trace")
	cmd.Flags().Bool("classic", false, "Also compute E - N + 2P")
	cmd.Flags().String("strategy", "", "Walk strategy: iterative or recursive")
	cmd.Flags().IntP("parallel", "p", -1, "Functions analysed concurrently (0 = one per CPU)")
	cmd.Flags().Int("threshold", -1, "Highlight functions above this complexity (0 = off)")
	cmd.Flags().Bool("no-cache", false, "Do not read or write the result cache")
	cmd.Flags().Bool("record", false, "Record the results in the history database")
}

// applyAnalyzeFlags overrides cfg with the flags the user set.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("explain") {
		cfg.Explain, _ = flags.GetBool("explain")
	}
	if flags.Changed("classic") {
		cfg.Classic, _ = flags.GetBool("classic")
	}
	if flags.Changed("strategy") {
		cfg.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("parallel") {
		cfg.Parallelism, _ = flags.GetInt("parallel")
	}
	if flags.Changed("threshold") {
		cfg.Threshold, _ = flags.GetInt("threshold")
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.CacheEnabled = false
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	scanOpts := scanner.DefaultOptions()
	scanOpts.Exclude = cfg.Exclude

	opts := runner.Options{
		Analysis: cfg.AnalysisOptions(),
		Scan:     scanOpts,
		Logger:   logger,
	}

	if cfg.CacheEnabled {
		opts.Cache = openCache(cfg, logger)
		defer saveCache(opts.Cache, cfg, logger)
	}

	if record, _ := cmd.Flags().GetBool("record"); record {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
	}

	entries, err := runner.New(opts).Paths(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	info, statErr := statPath(args[0])
	r, err := report.New(format, out, report.Options{
		Explain:    cfg.Explain,
		Threshold:  cfg.Threshold,
		Color:      report.IsTerminal(out),
		ShowSource: statErr == nil && info.IsDir(),
	})
	if err != nil {
		return err
	}
	if err := report.All(r, entries); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Guides you through setting up ccm configuration step by step and saves it
globally (~/.ccm/config.yaml) or for the current project (./.ccm/config.yaml).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

// initAnswers holds what the init form collects.
type initAnswers struct {
	Format    string
	Strategy  string
	Threshold string
	Explain   bool
	Classic   bool
	Cache     bool
	Location  string
}

// buildInitConfig turns the answers into a validated Config and the path it
// is saved to.
func buildInitConfig(a initAnswers) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	cfg.Format = a.Format
	cfg.Strategy = a.Strategy
	cfg.Explain = a.Explain
	cfg.Classic = a.Classic
	cfg.CacheEnabled = a.Cache

	if a.Threshold != "" {
		n, err := strconv.Atoi(a.Threshold)
		if err != nil {
			return nil, "", fmt.Errorf("threshold must be a number: %q", a.Threshold)
		}
		cfg.Threshold = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config validation failed: %w", err)
	}

	var configPath string
	if a.Location == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".ccm", "config.yaml")
	} else {
		configPath = config.ProjectConfigFilePath()
	}
	return cfg, configPath, nil
}

func runInit(cmd *cobra.Command) error {
	a := initAnswers{
		Format:    "text",
		Strategy:  "iterative",
		Threshold: "10",
		Cache:     true,
		Location:  "project",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Text", "text"),
					huh.NewOption("JSON", "json"),
					huh.NewOption("Prometheus", "prometheus"),
				).
				Value(&a.Format),
			huh.NewSelect[string]().
				Title("Walk strategy").
				Description("Both give the same numbers; iterative handles very deep graphs").
				Options(
					huh.NewOption("Iterative", "iterative"),
					huh.NewOption("Recursive", "recursive"),
				).
				Value(&a.Strategy),
			huh.NewInput().
				Title("Highlight functions above this complexity (0 = off)").
				Placeholder("10").
				Validate(func(s string) error {
					if _, err := strconv.Atoi(s); err != nil {
						return fmt.Errorf("enter a number")
					}
					return nil
				}).
				Value(&a.Threshold),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Explain results by default?").
				Description("Show terminals, closing edges and the walk trace").
				Value(&a.Explain),
			huh.NewConfirm().
				Title("Also compute E - N + 2P?").
				Value(&a.Classic),
			huh.NewConfirm().
				Title("Cache results between runs?").
				Value(&a.Cache),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.ccm/config.yaml)", "project"),
					huh.NewOption("Global (~/.ccm/config.yaml)", "global"),
				).
				Value(&a.Location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg, configPath, err := buildInitConfig(a)
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Configuration ===")
	fmt.Fprintf(out, "Format: %s\n", cfg.Format)
	fmt.Fprintf(out, "Strategy: %s\n", cfg.Strategy)
	fmt.Fprintf(out, "Threshold: %d\n", cfg.Threshold)
	fmt.Fprintf(out, "Explain: %v, Classic: %v, Cache: %v\n", cfg.Explain, cfg.Classic, cfg.CacheEnabled)
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	return nil
}

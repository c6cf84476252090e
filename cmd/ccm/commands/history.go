package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/pkg/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <function>",
	Short: "Show recorded complexity of a function over time",
	Long: `Lists the complexity recorded for a function by "ccm analyze --record",
newest first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if d, _ := cmd.Flags().GetDuration("prune"); d > 0 {
			n, err := store.Prune(cmd.Context(), time.Now().Add(-d))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d runs\n", n)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		points, err := store.Trend(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			if points == nil {
				points = []history.Point{}
			}
			data, err := json.MarshalIndent(points, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(points) == 0 {
			fmt.Fprintf(out, "No history for %s\n", args[0])
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("RECORDED", "SOURCE", "COMPLEXITY", "TERMINALS", "CLOSING")
		for _, p := range points {
			t.Row(
				p.RecordedAt.Local().Format(time.DateTime),
				p.Source,
				strconv.Itoa(p.Complexity),
				strconv.Itoa(p.Terminals),
				strconv.Itoa(p.ClosingEdges),
			)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show (0 = all)")
	historyCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	historyCmd.Flags().Duration("prune", 0, "Delete runs older than this before listing")
}

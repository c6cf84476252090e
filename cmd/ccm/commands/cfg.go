package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file> <function>",
	Short: "Show the control-flow graph of one function",
	Long: `Builds the Control Flow Graph (CFG) of one function and prints its blocks,
edges and complexity. With --json the graph is written as a CFG document that
"ccm analyze" reads back.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		functionName := args[1]

		info, err := statPath(filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", filePath)
		}

		m, err := cfg.Load(cmd.Context(), filePath)
		if err != nil {
			return err
		}

		fn, err := m.Function(functionName)
		if err != nil {
			if suggestions := similarFunctions(m.Names(), functionName); len(suggestions) > 0 {
				return fmt.Errorf("%w\nDid you mean: %s?", err, strings.Join(suggestions, ", "))
			}
			return err
		}

		graph, err := fn.Graph()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", complexity.ErrMalformedFunction, fn.FunctionName, err)
		}
		res, err := complexity.Analyze(graph, complexity.Options{Classical: true})
		if err != nil {
			return err
		}
		fn.CyclomaticComplexity = res.Complexity

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(fn, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printCFGInfo(cmd.OutOrStdout(), fn, res)
		return nil
	},
}

func init() {
	cfgCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func statPath(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// similarFunctions returns the names that contain want, or that want
// contains, ignoring case.
func similarFunctions(names []string, want string) []string {
	lower := strings.ToLower(want)
	var out []string
	for _, n := range names {
		ln := strings.ToLower(n)
		if strings.Contains(ln, lower) || strings.Contains(lower, ln) {
			out = append(out, n)
		}
	}
	return out
}

// printCFGInfo prints CFG information in human-readable format.
func printCFGInfo(w io.Writer, info *cfg.CFGInfo, res complexity.Result) {
	fmt.Fprintf(w, "=== CFG for function: %s ===\n", info.FunctionName)
	fmt.Fprintf(w, "Cyclomatic Complexity: %d (%d terminals + %d closing edges)\n",
		res.Complexity, res.Terminals, res.ClosingEdges)
	if res.Classical != nil {
		fmt.Fprintf(w, "E - N + 2P: %d\n", *res.Classical)
	}
	fmt.Fprintf(w, "Entry Block: %s\n", entryID(info))
	fmt.Fprintf(w, "Exit Blocks: %v\n", info.ExitBlockIDs)
	fmt.Fprintf(w, "\nBlocks (%d):\n", len(info.Blocks))
	for _, block := range info.Blocks {
		if block.StartLine > 0 {
			fmt.Fprintf(w, "  %s (%s, lines %d-%d)\n", block.ID, block.Type, block.StartLine, block.EndLine)
		} else {
			fmt.Fprintf(w, "  %s (%s)\n", block.ID, block.Type)
		}
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", stmt)
		}
	}

	fmt.Fprintf(w, "\nEdges (%d):\n", len(info.Edges))
	for _, edge := range info.Edges {
		if edge.Condition != "" {
			fmt.Fprintf(w, "  %s --%s [%s]--> %s\n", edge.SourceID, edge.EdgeType, edge.Condition, edge.TargetID)
		} else {
			fmt.Fprintf(w, "  %s --%s--> %s\n", edge.SourceID, edge.EdgeType, edge.TargetID)
		}
	}
}

func entryID(info *cfg.CFGInfo) string {
	if info.EntryBlockID != "" {
		return info.EntryBlockID
	}
	if len(info.Blocks) > 0 {
		return info.Blocks[0].ID
	}
	return ""
}

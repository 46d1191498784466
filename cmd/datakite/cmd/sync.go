package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/datakite/datakite/internal/prompt"
	"github.com/datakite/datakite/pkg/logging"
	"github.com/datakite/datakite/pkg/project"
	"github.com/datakite/datakite/pkg/sync"
)

var (
	syncExclude       []string
	syncStrategy      string
	syncDocStrategy   string
	syncSelection     []string
	syncNoSchemaCheck bool
	syncDryRun        bool
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync SOURCE DESTINATION",
	Short: "Sync a source project into a destination project",
	Long: `Sync merges the source project into the destination project. Jobs
that only exist in the source are cloned; jobs that exist on both sides are
merged: workspace files first, then the job document.

File conflicts fail the sync unless a strategy is given; document key
conflicts are skipped and reported unless a document strategy resolves them.
Available strategies: ` + strings.Join(sync.StrategyNames(), ", ") + `.`,
	Example: `  datakite sync ./run-a ./archive
  datakite sync ./run-a ./archive --strategy theirs --doc-strategy theirs
  datakite sync ./run-a ./archive -s ask --dry-run
  datakite sync ./run-a ./archive -x '.*\.log' --selection 0d32a1b8`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringArrayVarP(&syncExclude, "exclude", "x", nil, "basename pattern to exclude from the tree merge (repeatable)")
	syncCmd.Flags().StringVarP(&syncStrategy, "strategy", "s", "", "file conflict strategy (default: fail on conflict)")
	syncCmd.Flags().StringVar(&syncDocStrategy, "doc-strategy", "", "document key conflict strategy (default: skip and report)")
	syncCmd.Flags().StringSliceVar(&syncSelection, "selection", nil, "job ids to sync (default: all jobs)")
	syncCmd.Flags().BoolVar(&syncNoSchemaCheck, "no-schema-check", false, "skip the pre-flight schema compatibility check")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would change without making modifications")
}

func runSync(_ *cobra.Command, args []string) error {
	source, err := project.Open(args[0])
	if err != nil {
		return err
	}
	destination, err := project.Open(args[1])
	if err != nil {
		return err
	}

	opts := []sync.Option{
		sync.WithSchemaCheck(!syncNoSchemaCheck),
		sync.WithDryRun(syncDryRun),
		sync.WithLogger(*logging.Default()),
	}
	if len(syncExclude) > 0 {
		opts = append(opts, sync.WithExclude(syncExclude...))
	}
	if len(syncSelection) > 0 {
		opts = append(opts, sync.WithSelection(syncSelection...))
	}

	fs := afero.NewOsFs()
	prompter := prompt.New()
	if syncStrategy != "" {
		strategy, ok := sync.LookupStrategy(syncStrategy, fs, prompter)
		if !ok {
			return fmt.Errorf("unknown strategy %q (available: %s)",
				syncStrategy, strings.Join(sync.StrategyNames(), ", "))
		}
		opts = append(opts, sync.WithStrategy(strategy))
	}
	if syncDocStrategy != "" {
		strategy, ok := sync.LookupStrategy(syncDocStrategy, fs, prompter)
		if !ok {
			return fmt.Errorf("unknown document strategy %q (available: %s)",
				syncDocStrategy, strings.Join(sync.StrategyNames(), ", "))
		}
		opts = append(opts, sync.WithDocStrategy(strategy))
	}

	result, err := sync.Projects(source, destination, opts...)
	if err != nil {
		return err
	}
	fmt.Println(result.Summary())
	return nil
}

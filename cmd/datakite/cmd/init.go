package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datakite/datakite/pkg/project"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a datakite project",
	Long: `Init creates a datakite project at the given path (default: the
current directory), setting up the workspace directory that will hold job
workspaces. Initializing an existing project is a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	p, err := project.Init(root)
	if err != nil {
		return err
	}
	fmt.Printf("Initialized project at %s\n", p.Root())
	return nil
}

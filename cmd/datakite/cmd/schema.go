package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datakite/datakite/pkg/project"
)

// schemaCmd represents the schema command.
var schemaCmd = &cobra.Command{
	Use:   "schema [path]",
	Short: "Show the detected project schema",
	Long: `Schema summarizes the structural shape of a project's job
manifests: every flattened parameter path together with the value types
observed at that path. Two projects can only be synced when their schemas
are compatible (unless the check is disabled).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(_ *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	p, err := project.Open(root)
	if err != nil {
		return err
	}
	s, err := p.DetectSchema()
	if err != nil {
		return err
	}
	if s.IsZero() {
		fmt.Println("No jobs, empty schema")
		return nil
	}
	fmt.Print(s.String())
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/project"
)

// jobsCmd represents the jobs command.
var jobsCmd = &cobra.Command{
	Use:   "jobs [path]",
	Short: "List the jobs of a project",
	Long: `Jobs lists the job ids of a project (default: the current
directory), one per line. With --verbose each job's manifest parameters are
shown next to the id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(_ *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	p, err := project.Open(root)
	if err != nil {
		return err
	}
	jobs, err := p.Jobs()
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if verbose {
			fmt.Printf("%s  %s\n", job.ID(), manifestSummary(job.Manifest()))
		} else {
			fmt.Println(job.ID())
		}
	}
	return nil
}

// manifestSummary renders a manifest as "key=value, ..." for listing.
func manifestSummary(m *document.Document) string {
	parts := make([]string, 0, m.Len())
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		parts = append(parts, fmt.Sprintf("%s=%s", key, v.String()))
	}
	return strings.Join(parts, ", ")
}

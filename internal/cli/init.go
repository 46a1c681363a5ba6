package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/dataroot"
)

// InitResult is the outcome of the init command.
type InitResult struct {
	Root string `json:"root"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Created data root %s", r.Root)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <parent-dir>",
		Short: "Create a fresh data root",
		Long: `Create a data root named ` + dataroot.Name + ` inside the given directory.

The data root holds an empty question store, a sample configuration and
doctree, and the Surveys, Visuals and Templates output directories.

Example:
  surveykn init ~/reports
  export ` + EnvRoot + `=~/reports/` + dataroot.Name,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			root, err := dataroot.Init(args[0])
			if err != nil {
				return fail(formatter, "failed to create data root", err)
			}
			rootOpts.logger().Info("created data root", zap.String("path", root.Path))
			return formatter.Success(InitResult{Root: root.Path})
		},
	}
}

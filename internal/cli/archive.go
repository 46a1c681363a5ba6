package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/store"
)

// RunList is the output of runs list.
type RunList struct {
	Runs []ir.RunRecord `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No archived runs."
	}
	lines := make([]string, len(l.Runs))
	for i, r := range l.Runs {
		lines[i] = fmt.Sprintf("%s  %s  %s  %d response(s), %d registered, %d left out",
			r.Label, r.ID, r.FinishedAt.Format(time.DateTime), r.Responses, len(r.Registered), len(r.Declined))
	}
	return strings.Join(lines, "\n")
}

// RunDetail is the output of runs show.
type RunDetail struct {
	ir.RunRecord
}

func (d RunDetail) String() string {
	r := d.RunRecord
	lines := []string{
		"Run:          " + r.Label,
		"ID:           " + r.ID,
		"Started:      " + r.StartedAt.Format(time.RFC3339),
		"Finished:     " + r.FinishedAt.Format(time.RFC3339),
		"Areas:        " + strings.Join(r.Areas, ", "),
		fmt.Sprintf("Responses:    %d", r.Responses),
		"Outline hash: " + r.OutlineHash,
		"Dataset hash: " + r.DatasetHash,
	}
	for _, id := range r.Registered {
		lines = append(lines, "Registered:   "+string(id))
	}
	for _, w := range r.Declined {
		lines = append(lines, "Left out:     "+w)
	}
	return strings.Join(lines, "\n")
}

// SnapshotList is the output of snapshots list.
type SnapshotList struct {
	Snapshots []store.SnapshotInfo `json:"snapshots"`
}

func (l SnapshotList) String() string {
	if len(l.Snapshots) == 0 {
		return "No archived snapshots."
	}
	lines := make([]string, len(l.Snapshots))
	for i, s := range l.Snapshots {
		lines[i] = fmt.Sprintf("%s  %d column(s)  %d row(s)  %s", s.ID, s.Columns, s.Rows, s.Hash)
	}
	return strings.Join(lines, "\n")
}

// archiveCommand opens the data root's archive around fn.
func archiveCommand(opts *RootOptions, fn func(ctx context.Context, args []string, a *store.Store) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		formatter := newFormatter(opts, cmd)
		root, err := openRoot(opts)
		if err != nil {
			return fail(formatter, "failed to open data root", err)
		}
		a, err := store.Open(root.Archive())
		if err != nil {
			return fail(formatter, "failed to open archive", err)
		}
		defer a.Close()

		out, err := fn(cmd.Context(), args, a)
		if err != nil {
			return fail(formatter, "archive query failed", err)
		}
		return formatter.Success(out)
	}
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived runs",
	}

	var label string
	list := &cobra.Command{
		Use:           "list",
		Short:         "List archived runs in the order they completed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: archiveCommand(rootOpts, func(ctx context.Context, _ []string, a *store.Store) (any, error) {
			runs, err := a.ListRuns(ctx, label)
			if err != nil {
				return nil, err
			}
			return RunList{Runs: runs}, nil
		}),
	}
	list.Flags().StringVar(&label, "run", "", "only runs with this label")

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Print one archived run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: archiveCommand(rootOpts, func(ctx context.Context, args []string, a *store.Store) (any, error) {
			rec, err := a.Run(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return RunDetail{RunRecord: rec}, nil
		}),
	}

	cmd.AddCommand(list, show)
	return cmd
}

// NewSnapshotsCommand creates the snapshots command group.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect archived snapshots",
		Long: `Inspect archived snapshots: the bound surveys of earlier runs that
historical and series charts compare against.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List archived snapshots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: archiveCommand(rootOpts, func(ctx context.Context, _ []string, a *store.Store) (any, error) {
			snaps, err := a.ListSnapshots(ctx)
			if err != nil {
				return nil, err
			}
			return SnapshotList{Snapshots: snaps}, nil
		}),
	})
	return cmd
}

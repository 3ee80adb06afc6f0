package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dyncache/datarecording"
	"github.com/sarchlab/dyncache/instrumentation/stats"
	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/sim"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <database.sqlite3>",
		Short: "Summarize a database written by run --record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer reader.Close()

			return report(cmd.Context(), reader, cmd.OutOrStdout())
		},
	}
}

func report(
	ctx context.Context,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader.MapTable(stats.FlushTable, stats.FlushEntry{})
	reader.MapTable(stats.PathSwitchTable, stats.PathSwitchEntry{})

	summary := stats.NewSummary()

	switches, _, err := reader.Query(ctx, stats.PathSwitchTable,
		datarecording.QueryParams{OrderBy: "Inst"})
	if err != nil {
		return fmt.Errorf("reading path switches: %w", err)
	}

	for _, row := range switches {
		e := row.(*stats.PathSwitchEntry)

		from, err := dyncachectrl.ParsePathID(e.From)
		if err != nil {
			return err
		}

		to, err := dyncachectrl.ParsePathID(e.To)
		if err != nil {
			return err
		}

		summary.RecordPathSwitch(from, to, e.Inst)
	}

	flushes, _, err := reader.Query(ctx, stats.FlushTable,
		datarecording.QueryParams{OrderBy: "StartTime"})
	if err != nil {
		return fmt.Errorf("reading flushes: %w", err)
	}

	for _, row := range flushes {
		e := row.(*stats.FlushEntry)

		path, err := dyncachectrl.ParsePathID(e.Path)
		if err != nil {
			return err
		}

		summary.RecordFlush(path, 0, sim.VTime(e.Ticks))
	}

	return summary.Report(out)
}

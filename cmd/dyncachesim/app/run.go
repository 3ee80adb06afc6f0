package app

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarchlab/dyncache/cmd/dyncachesim/simconfig"
	"github.com/sarchlab/dyncache/datarecording"
	"github.com/sarchlab/dyncache/instrumentation/stats"
	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/platform"
	"github.com/sarchlab/dyncache/sim"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print its statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			c, err := simconfig.Load(v, configPath)
			if err != nil {
				return err
			}

			return runSimulation(c, cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.Int64("seed", 0, "Random seed of the traffic agent")
	flags.Int("num-reads", 0, "Number of reads to issue")
	flags.Int("num-writes", 0, "Number of writes to issue")
	flags.Bool("account-flush", true,
		"Flush a cache before leaving it for the direct path")
	flags.Uint64("stat-dump-interval", 0,
		"Instructions between periodic stat dumps; 0 disables them")
	flags.String("metrics-file", "",
		"Write Prometheus metrics to this file after the run")
	flags.Bool("record", false, "Record flushes and path switches")
	flags.String("db", "", "Name of the recording database, without suffix")

	mustBind(v, "seed", flags, "seed")
	mustBind(v, "agent.num-reads", flags, "num-reads")
	mustBind(v, "agent.num-writes", flags, "num-writes")
	mustBind(v, "controller.account-flush", flags, "account-flush")
	mustBind(v, "controller.stat-dump-interval", flags, "stat-dump-interval")
	mustBind(v, "metrics-file", flags, "metrics-file")
	mustBind(v, "record", flags, "record")
	mustBind(v, "recording.path", flags, "db")

	return runCmd
}

var openRecorder = datarecording.NewDataRecorderWithConfig

func runSimulation(c simconfig.Config, out io.Writer) (err error) {
	logger, syncLog, err := newLogger(c.Debug, c.Verbosity)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer syncLog()

	summary := stats.NewSummary()
	sinks := stats.MultiSink{summary}

	reg := prometheus.NewRegistry()
	if c.MetricsFile != "" {
		promSink, err := stats.NewPrometheusSink(reg)
		if err != nil {
			return err
		}

		sinks = append(sinks, promSink)
	}

	if c.Record {
		recorder, rerr := openRecorder(c.Recording)
		if rerr != nil {
			return fmt.Errorf("opening recorder: %w", rerr)
		}
		defer func() {
			if cerr := recorder.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing recorder: %w", cerr)
			}
		}()

		sinks = append(sinks, stats.NewRecorderSink(recorder))
	}

	dumps := &statDumpCounter{log: logger}

	p, err := platform.MakeBuilder().
		WithConfig(c.Config).
		WithStatsSink(sinks).
		WithLogger(logger).
		WithCtrlHook(dumps).
		Build()
	if err != nil {
		return err
	}

	if err := p.Run(); err != nil {
		return err
	}

	if err := printReport(out, p, summary, dumps.count); err != nil {
		return err
	}

	if c.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(c.MetricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	return nil
}

func printReport(
	out io.Writer,
	p *platform.Platform,
	summary *stats.Summary,
	numDumps int,
) error {
	_, err := fmt.Fprintf(out,
		"simulated time: %.9f s\n"+
			"instructions: %d\n"+
			"reads: %d, writes: %d, refused: %d, stale reads: %d\n"+
			"memory reads: %d, writes: %d\n"+
			"stat dumps: %d\n",
		p.Engine.CurrentTime().InSec(),
		p.Agent.NumSimulatedInsts(),
		p.Agent.NumReads, p.Agent.NumWrites,
		p.Agent.NumRefused, p.Agent.NumStaleReads,
		p.Memory.NumReads, p.Memory.NumWrites,
		numDumps)
	if err != nil {
		return err
	}

	for _, path := range dyncachectrl.AllPaths() {
		c, ok := p.Caches[path]
		if !ok {
			continue
		}

		_, err := fmt.Fprintf(out, "%s: %d hits, %d misses, %d write-backs\n",
			path, c.NumHits, c.NumMisses, c.NumWriteBacks)
		if err != nil {
			return err
		}
	}

	return summary.Report(out)
}

// statDumpCounter counts the periodic stat dumps of the controller.
type statDumpCounter struct {
	log   logr.Logger
	count int
}

func (h *statDumpCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != dyncachectrl.HookPosStatDump {
		return
	}

	h.count++
	h.log.V(1).Info("stat dump", "inst", ctx.Item)
}

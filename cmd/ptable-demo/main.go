// Command ptable-demo builds a small engine, feeds it a handful of batches,
// and prints the resulting master table and a tally of per-column changes —
// a demonstration of the engine, not part of its contract.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/nullstate/ptable/internal/ptable"
	"github.com/nullstate/ptable/pkg/ptctx"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "ptable-demo",
		Short: "Demonstrates the ptable incremental update engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(newLogger(verbose))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx := context.Background()

	schema := ptable.NewSchema(
		ptable.ColumnDef{Name: "id", DType: ptable.DTypeInt64},
		ptable.ColumnDef{Name: "region", DType: ptable.DTypeString},
		ptable.ColumnDef{Name: "latency_ms", DType: ptable.DTypeFloat64},
	)

	engine, err := ptable.NewEngine(schema, "id", ptable.DefaultEngineConfig(), logger, nil)
	if err != nil {
		return fmt.Errorf("new engine: %w", err)
	}
	if err := engine.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	tally := ptctx.NewTallyContext()
	if err := engine.RegisterContext(ptable.ContextHandle{Name: "tally", Kind: "tally", Context: tally}); err != nil {
		return fmt.Errorf("register context: %w", err)
	}

	pool := ptable.NewPool(logger)
	pool.AddEngine("demo", engine)

	batch1 := ptable.NewTable(engine.InputSchema(), 2)
	writeRow(batch1, 0, 1, "us-east", 12.5, ptable.OpInsert)
	writeRow(batch1, 1, 2, "eu-west", 30.1, ptable.OpInsert)

	if err := pool.Send("demo", batch1); err != nil {
		return fmt.Errorf("send batch1: %w", err)
	}
	if err := pool.ProcessAll(ctx); err != nil {
		return fmt.Errorf("process batch1: %w", err)
	}

	batch2 := ptable.NewTable(engine.InputSchema(), 1)
	writeRow(batch2, 0, 1, "us-east", 45.0, ptable.OpInsert)

	if err := pool.Send("demo", batch2); err != nil {
		return fmt.Errorf("send batch2: %w", err)
	}
	if err := pool.ProcessAll(ctx); err != nil {
		return fmt.Errorf("process batch2: %w", err)
	}

	ptable.Pprint(os.Stdout, engine.GetSortedPkeyedTable(pool.Epoch()))
	logger.Info("change tally", "counts", tally.Counts())
	return nil
}

func writeRow(t *ptable.Table, row int, id int64, region string, latency float64, op ptable.Op) {
	t.Column("id").Set(row, ptable.IntScalar(ptable.DTypeInt64, id))
	t.Column("psp_pkey").Set(row, ptable.IntScalar(ptable.DTypeInt64, id))
	t.Column("region").Set(row, ptable.StringScalar(t.Column("region").Vocabulary().Intern(region)))
	t.Column("latency_ms").Set(row, ptable.FloatScalar(ptable.DTypeFloat64, latency))
	t.Column("psp_op").Set(row, ptable.IntScalar(ptable.DTypeUint8, int64(op)))
}

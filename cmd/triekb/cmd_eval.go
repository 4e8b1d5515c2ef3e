package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"triekb/internal/term"
)

var (
	evalSave     string
	evalMaxIters int
)

var evalCmd = &cobra.Command{
	Use:   "eval [files...]",
	Short: "Load fact/rule files and run to a fixed point",
	Long: `Parses every input file (s-expression terms, ';' comments), asserts
the terms into a fresh store, and runs the rule evaluator until convergence
or the iteration cap. Rules are (exec ...) terms among the facts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalSave, "save", "", "write the resulting store to this snapshot file")
	evalCmd.Flags().IntVar(&evalMaxIters, "max-iterations", 0, "override the configured iteration cap")
}

func runEval(cmd *cobra.Command, args []string) error {
	sp := newSpace()

	terms, err := loadTermFiles(cmd.Context(), args)
	if err != nil {
		return err
	}
	added, err := sp.AddAll(terms)
	if err != nil {
		return err
	}
	logger.Info("store loaded", zap.Int("terms", len(terms)), zap.Int("added", added))

	maxIters := cfg.Engine.MaxIterations
	if evalMaxIters > 0 {
		maxIters = evalMaxIters
	}
	res, err := sp.RunToFixedPoint(maxIters)
	if err != nil {
		return err
	}
	fmt.Printf("converged: %v\niterations: %d\nfacts added: %d\nfacts total: %d\n",
		res.Converged, res.Iterations, res.FactsAdded, sp.Len())

	if evalSave != "" {
		if err := sp.Save(evalSave, cfg.Snapshot.Compress); err != nil {
			return err
		}
	}
	return nil
}

// loadTermFiles parses every file concurrently, then concatenates the
// results in argument order so assertion order is stable.
func loadTermFiles(ctx context.Context, paths []string) ([]term.Term, error) {
	perFile := make([][]term.Term, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			ts, err := parseAll(string(data))
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			perFile[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []term.Term
	for _, ts := range perFile {
		out = append(out, ts...)
	}
	return out, nil
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/crucible/internal/errors"
	"github.com/cwbudde/crucible/internal/eval"
	"github.com/cwbudde/crucible/internal/resolver"
	"github.com/cwbudde/crucible/internal/runtime"
)

var showStats bool

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Evaluate a YAML or JSON configuration document to weak head normal form",
	Long: `eval loads a document (YAML or JSON, by file extension), converts it into
the term model's own Record shape, reduces it to weak head normal form and
prints the result.

A contract violation anywhere in the document reports as a blame error
with the source position and call-stack trace that produced it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().BoolVar(&showStats, "stats", false, "report elapsed evaluation time")
}

func runEval(_ *cobra.Command, args []string) error {
	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := resolver.ParseDocument(path, raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	start := time.Now()
	result, evalErr := eval.Eval(doc, runtime.NewEnvironment(), eval.DummyResolver{})
	elapsed := time.Since(start)

	if evalErr != nil {
		if ee, ok := evalErr.(*errors.EvalError); ok {
			fmt.Fprintln(os.Stderr, ee.Format(string(raw), path, wantColor(os.Stderr.Fd())))
		} else {
			fmt.Fprintln(os.Stderr, evalErr)
		}
		return fmt.Errorf("evaluation failed")
	}

	fmt.Println(result.String())

	if showStats {
		fmt.Fprintf(os.Stderr, "read %s, evaluated in %s\n", humanize.Bytes(uint64(len(raw))), elapsed)
	}
	return nil
}

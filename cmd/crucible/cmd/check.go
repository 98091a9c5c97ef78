package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/crucible/internal/typer"
)

var checkArity string

var checkCmd = &cobra.Command{
	Use:   "check <operator>",
	Short: "Print the static type signature the operator typer assigns a primitive operator",
	Long: `check looks a primitive operator tag up in the operator typer (the same
dispatch tags the evaluator's own operator registry uses: is_num, plus,
merge, and so on) and prints the type signature it would be
assigned during bidirectional type checking.

It exists to exercise the typer module end-to-end without a surface
syntax to typecheck against: a document's contracts are checked at
evaluation time through term.Assume, not through this command.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkArity, "arity", "unary", "operator arity: unary, binary, or nary")
}

func runCheck(_ *cobra.Command, args []string) error {
	state := typer.NewState()
	op := typer.Op{Tag: args[0]}

	switch checkArity {
	case "unary":
		in, out, err := typer.GetUnaryOpType(state, op)
		if err != nil {
			return err
		}
		fmt.Printf("%s : %s -> %s\n", op.Tag, in, out)
	case "binary":
		fst, snd, out, err := typer.GetBinaryOpType(state, op)
		if err != nil {
			return err
		}
		fmt.Printf("%s : %s -> %s -> %s\n", op.Tag, fst, snd, out)
	case "nary":
		ins, out, err := typer.GetNaryOpType(state, op)
		if err != nil {
			return err
		}
		fmt.Printf("%s : %v -> %s\n", op.Tag, ins, out)
	default:
		return fmt.Errorf("unknown arity %q: expected unary, binary, or nary", checkArity)
	}
	return nil
}

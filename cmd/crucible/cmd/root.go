package cmd

import (
	"fmt"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Lazy, gradually-typed configuration language core",
	Long: `crucible evaluates configuration documents written against a lazy,
call-by-need term model with contracts, recursive records and merge
semantics, in the style of Nickel.

It is a core, not a full language distribution: crucible reads a
configuration document already expressed as the term model's own Record
shape (built by its YAML/JSON import resolver), evaluates it to weak head
normal form, and reports contract violations as blame errors.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI color in diagnostics")
}

// wantColor decides whether to emit ANSI severity coloring for a
// diagnostic, gated on both an explicit --no-color override and
// whether the target file descriptor is actually a terminal.
func wantColor(fd uintptr) bool {
	if noColor {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

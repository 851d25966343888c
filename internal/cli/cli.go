// Package cli builds the adac command tree: one compiler invocation that
// lexes, parses, analyzes, and lowers a single Ada 83 source file to LLVM
// IR on stdout, following spec §6.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AdaDoom3/Ada83-sub000/internal/codegen"
	"github.com/AdaDoom3/Ada83-sub000/internal/diag"
	"github.com/AdaDoom3/Ada83-sub000/internal/units"
)

// options holds the flags a compiler invocation was given.
type options struct {
	includeDirs []string
	out         string
}

// NewRootCommand builds the `adac` cobra.Command: one positional source
// argument, a repeatable -I include directory flag, and an optional -o
// output path (default stdout).
func NewRootCommand() *cobra.Command {
	opt := &options{}
	cmd := &cobra.Command{
		Use:           "adac SOURCE",
		Short:         "compile an Ada 83 source file to LLVM IR",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(args[0], *opt, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVarP(&opt.includeDirs, "include", "I", nil, "add DIR to the with-clause search path (repeatable)")
	cmd.Flags().StringVarP(&opt.out, "output", "o", "", "write LLVM IR to FILE instead of stdout")
	return cmd
}

// Run compiles path and writes the resulting module's textual LLVM IR to
// w, or to the file named by opt.out when set. It returns a non-nil error
// whenever the compilation reported any diagnostic (spec §6: "exit 1 on
// any diagnostic").
func Run(path string, opt options, w io.Writer) error {
	bag := diag.NewBag()
	defer bag.Stop()

	resolver := units.NewResolver(path, opt.includeDirs)
	driver := units.NewDriver(resolver, bag)

	loaded, err := driver.Load(path)
	if err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	if bag.Failed() {
		return reportDiagnostics(bag)
	}

	emitter := codegen.NewEmitter(loaded.Name)
	mod, err := emitter.Emit(loaded.Tree)
	if err != nil {
		return errors.Wrap(err, "code generation")
	}

	out := w
	if opt.out != "" {
		f, ferr := os.Create(opt.out)
		if ferr != nil {
			return errors.Wrapf(ferr, "opening %s", opt.out)
		}
		defer f.Close()
		out = f
	}
	if _, err := fmt.Fprint(out, mod); err != nil {
		return errors.Wrap(err, "writing IR")
	}
	return nil
}

// Main runs the adac command and calls os.Exit with spec §6's exit codes:
// 0 on success, 1 on any diagnostic or fatal error.
func Main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func reportDiagnostics(bag *diag.Bag) error {
	for _, d := range bag.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	return errors.Errorf("%d diagnostic(s)", bag.Len())
}

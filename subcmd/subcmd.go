// Package subcmd is a flag.FlagSet that knows about its positional argument,
// so -help can describe it.
package subcmd

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// New creates a Subcommand of the artsy binary. doc is the one-line
// description printed by -help.
func New(name, doc string) *Subcommand {
	sc := &Subcommand{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
	}
	sc.FlagSet.Usage = func() {
		out := sc.FlagSet.Output()
		argSuffix := ""
		if sc.arg != nil {
			argSuffix = fmt.Sprintf(" <%s>", sc.arg.name)
		}
		fmt.Fprintf(out, "\n%s\n\n", doc)
		fmt.Fprintf(out, "  artsy %s [flags]%s\n\n", name, argSuffix)
		fmt.Fprintf(out, "flags:\n")
		sc.FlagSet.PrintDefaults()
		if sc.arg != nil {
			fmt.Fprintf(out, "  <%s> %s\n", sc.arg.name, sc.arg.typename)
			fmt.Fprintf(out, "  \t%s\n", sc.arg.usage)
		}
	}
	return sc
}

type Subcommand struct {
	*flag.FlagSet
	arg *arg
}

type arg struct {
	name     string
	typename string
	usage    string
	required bool
}

// SetArg describes the positional argument.
func (sc *Subcommand) SetArg(name, typname, usage string) *Subcommand {
	sc.arg = &arg{name: name, typename: typname, usage: usage}
	return sc
}

// RequireArg describes the positional argument, and makes Parse fail without
// it.
func (sc *Subcommand) RequireArg(name, typname, usage string) *Subcommand {
	sc.arg = &arg{name: name, typename: typname, usage: usage + " (required)", required: true}
	return sc
}

// Parse parses flags from args, then checks for a required argument.
func (sc *Subcommand) Parse(args []string) error {
	if err := sc.FlagSet.Parse(args); err != nil {
		return err
	}
	if sc.arg != nil && sc.arg.required && sc.NArg() == 0 {
		sc.Usage()
		return fmt.Errorf("missing <%s>", sc.arg.name)
	}
	return nil
}

// SetOutput redirects usage and errors, which go to stderr by default.
func (sc *Subcommand) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	sc.FlagSet.SetOutput(w)
}

package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/cli"

	"catapult-platform/pkg/catapult"
)

// Meta carries what every command needs.
type Meta struct {
	UI      cli.Ui
	Timeout time.Duration
	Client  func() (*catapult.Client, error)
}

func (m *Meta) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}

func (m *Meta) context() (context.Context, context.CancelFunc) {
	if m.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), m.Timeout)
}

// output prints v as indented JSON.
func (m *Meta) output(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return m.fail(err)
	}
	m.UI.Output(string(data))
	return 0
}

func (m *Meta) fail(err error) int {
	m.UI.Error(err.Error())
	return 1
}

// parse parses args and checks the number of positional arguments.
func (m *Meta) parse(f *flag.FlagSet, args []string, positional int) ([]string, bool) {
	if err := f.Parse(args); err != nil {
		m.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return nil, false
	}
	if f.NArg() != positional {
		m.UI.Error(fmt.Sprintf("expected %d argument(s), got %d", positional, f.NArg()))
		return nil, false
	}
	return f.Args(), true
}

// flagHelp renders the defaults of f for Help.
func flagHelp(f *flag.FlagSet) string {
	var b strings.Builder
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "\n  -%s\n      %s", fl.Name, fl.Usage)
		if fl.DefValue != "" && fl.DefValue != "false" && fl.DefValue != "0" {
			fmt.Fprintf(&b, " (default %s)", fl.DefValue)
		}
	})
	if b.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n" + b.String()[1:]
}

type groupCommand struct {
	synopsis, name string
}

func group(_ *Meta, synopsis, name string) cli.CommandFactory {
	return func() (cli.Command, error) { return &groupCommand{synopsis: synopsis, name: name}, nil }
}

func (c *groupCommand) Synopsis() string { return c.synopsis }

func (c *groupCommand) Help() string {
	return fmt.Sprintf("Usage: catapult %s <subcommand> [options] [args]\n\n  %s.", c.name, c.synopsis)
}

func (c *groupCommand) Run([]string) int { return cli.RunResultHelp }

type VersionCommand struct{ *Meta }

func (c *VersionCommand) Synopsis() string { return "Print the client version" }
func (c *VersionCommand) Help() string     { return "Usage: catapult version" }

func (c *VersionCommand) Run([]string) int {
	c.UI.Output("catapult-go " + catapult.Version)
	return 0
}

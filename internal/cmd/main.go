package cmd

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/mitchellh/cli"

	"catapult-platform/internal/config"
	"catapult-platform/pkg/catapult"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	meta := &Meta{
		UI:      ui,
		Timeout: 30 * time.Second,
		Client: func() (*catapult.Client, error) {
			cfg, err := config.LoadCatapult()
			if err != nil {
				return nil, err
			}
			return cfg.NewClient(catapult.WithUserAgent(cliName))
		},
	}

	c := &cli.CLI{
		Name:       cliName,
		Args:       args[1:],
		Version:    catapult.Version,
		Commands:   Commands(meta),
		HelpWriter: os.Stderr,
	}

	exitCode, err := c.Run()
	if err != nil {
		_, _ = io.WriteString(os.Stderr, err.Error()+"\n")
		return 1
	}
	return exitCode
}

// Commands returns the command table for meta.
func Commands(meta *Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"version": func() (cli.Command, error) { return &VersionCommand{Meta: meta}, nil },
		"account": func() (cli.Command, error) { return &AccountCommand{Meta: meta}, nil },

		"calls":        group(meta, "Place and inspect calls", "calls"),
		"calls list":   func() (cli.Command, error) { return &CallsListCommand{Meta: meta}, nil },
		"calls get":    func() (cli.Command, error) { return &CallsGetCommand{Meta: meta}, nil },
		"calls create": func() (cli.Command, error) { return &CallsCreateCommand{Meta: meta}, nil },
		"calls hangup": func() (cli.Command, error) { return &CallsHangupCommand{Meta: meta}, nil },

		"messages":      group(meta, "Send and list messages", "messages"),
		"messages send": func() (cli.Command, error) { return &MessagesSendCommand{Meta: meta}, nil },
		"messages list": func() (cli.Command, error) { return &MessagesListCommand{Meta: meta}, nil },

		"numbers":         group(meta, "Search, order and release phone numbers", "numbers"),
		"numbers search":  func() (cli.Command, error) { return &NumbersSearchCommand{Meta: meta}, nil },
		"numbers order":   func() (cli.Command, error) { return &NumbersSearchCommand{Meta: meta, order: true}, nil },
		"numbers release": func() (cli.Command, error) { return &NumbersReleaseCommand{Meta: meta}, nil },

		"routes":       group(meta, "Work with the inbound route file", "routes"),
		"routes check": func() (cli.Command, error) { return &RoutesCheckCommand{Meta: meta}, nil },

		"token": func() (cli.Command, error) { return &TokenCommand{Meta: meta}, nil },
	}
}

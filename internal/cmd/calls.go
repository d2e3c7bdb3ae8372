package cmd

import (
	"flag"

	"catapult-platform/pkg/catapult"
)

type AccountCommand struct{ *Meta }

func (c *AccountCommand) Synopsis() string { return "Show the account balance" }
func (c *AccountCommand) Help() string     { return "Usage: catapult account" }

func (c *AccountCommand) Run(args []string) int {
	if _, ok := c.parse(c.flagSet("account"), args, 0); !ok {
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	acct, err := client.Account.Get(ctx)
	if err != nil {
		return c.fail(err)
	}
	return c.output(acct)
}

type CallsListCommand struct {
	*Meta
	q catapult.CallQuery
}

func (c *CallsListCommand) Synopsis() string { return "List calls" }
func (c *CallsListCommand) Help() string {
	return "Usage: catapult calls list [options]" + flagHelp(c.flags())
}

func (c *CallsListCommand) flags() *flag.FlagSet {
	f := c.flagSet("calls list")
	f.StringVar(&c.q.From, "from", "", "Only calls from this number.")
	f.StringVar(&c.q.To, "to", "", "Only calls to this number.")
	f.StringVar(&c.q.BridgeID, "bridge", "", "Only calls in this bridge.")
	f.StringVar(&c.q.ConferenceID, "conference", "", "Only calls in this conference.")
	f.StringVar(&c.q.SortOrder, "sort", "", "asc or desc.")
	f.IntVar(&c.q.Page, "page", 0, "Page number.")
	f.IntVar(&c.q.Size, "size", 25, "Page size.")
	return f
}

func (c *CallsListCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	list, err := client.Calls.List(ctx, c.q)
	if err != nil {
		return c.fail(err)
	}
	if list == nil {
		list = []catapult.Call{}
	}
	return c.output(list)
}

type CallsGetCommand struct{ *Meta }

func (c *CallsGetCommand) Synopsis() string { return "Show one call" }
func (c *CallsGetCommand) Help() string     { return "Usage: catapult calls get <call-id>" }

func (c *CallsGetCommand) Run(args []string) int {
	pos, ok := c.parse(c.flagSet("calls get"), args, 1)
	if !ok {
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	call, err := client.Calls.Get(ctx, pos[0])
	if err != nil {
		return c.fail(err)
	}
	return c.output(call)
}

type CallsCreateCommand struct {
	*Meta
	req catapult.CreateCallRequest
}

func (c *CallsCreateCommand) Synopsis() string { return "Place an outbound call" }
func (c *CallsCreateCommand) Help() string {
	return "Usage: catapult calls create -from <number> -to <number> [options]" + flagHelp(c.flags())
}

func (c *CallsCreateCommand) flags() *flag.FlagSet {
	f := c.flagSet("calls create")
	f.StringVar(&c.req.From, "from", "", "(Required) Calling number.")
	f.StringVar(&c.req.To, "to", "", "(Required) Number or sip: URI to call.")
	f.StringVar(&c.req.CallbackURL, "callback-url", "", "URL that receives call events.")
	f.StringVar(&c.req.Tag, "tag", "", "Tag echoed in every event.")
	f.IntVar(&c.req.CallTimeout, "timeout", 0, "Seconds to wait for an answer.")
	f.BoolVar(&c.req.RecordingEnabled, "record", false, "Record the call.")
	return f
}

func (c *CallsCreateCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	if c.req.From == "" || c.req.To == "" {
		c.UI.Error("-from and -to are required")
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	id, err := client.Calls.Create(ctx, c.req)
	if err != nil {
		return c.fail(err)
	}
	return c.output(map[string]string{"id": id})
}

type CallsHangupCommand struct{ *Meta }

func (c *CallsHangupCommand) Synopsis() string { return "Hang up a call" }
func (c *CallsHangupCommand) Help() string     { return "Usage: catapult calls hangup <call-id>" }

func (c *CallsHangupCommand) Run(args []string) int {
	pos, ok := c.parse(c.flagSet("calls hangup"), args, 1)
	if !ok {
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	if err := client.Calls.Hangup(ctx, pos[0]); err != nil {
		return c.fail(err)
	}
	return c.output(map[string]string{"id": pos[0], "state": "completed"})
}

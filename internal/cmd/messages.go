package cmd

import (
	"flag"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"catapult-platform/pkg/catapult"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type MessagesSendCommand struct {
	*Meta
	req   catapult.SendMessageRequest
	media stringList
}

func (c *MessagesSendCommand) Synopsis() string { return "Send an SMS or MMS" }
func (c *MessagesSendCommand) Help() string {
	return "Usage: catapult messages send -from <number> -to <number> -text <text> [options]" + flagHelp(c.flags())
}

func (c *MessagesSendCommand) flags() *flag.FlagSet {
	f := c.flagSet("messages send")
	f.StringVar(&c.req.From, "from", "", "(Required) Sending number.")
	f.StringVar(&c.req.To, "to", "", "(Required) Receiving number.")
	f.StringVar(&c.req.Text, "text", "", "Message body.")
	f.Var(&c.media, "media", "Media URL. May be repeated.")
	f.StringVar(&c.req.CallbackURL, "callback-url", "", "URL that receives delivery events.")
	f.StringVar(&c.req.Tag, "tag", "", "Tag echoed in every event.")
	return f
}

func (c *MessagesSendCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	if c.req.From == "" || c.req.To == "" || (c.req.Text == "" && len(c.media) == 0) {
		c.UI.Error("-from, -to and one of -text or -media are required")
		return 1
	}
	c.req.Media = c.media

	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	id, err := client.Messages.Send(ctx, c.req)
	if err != nil {
		return c.fail(err)
	}
	return c.output(map[string]string{"id": id})
}

type MessagesListCommand struct {
	*Meta
	q        catapult.MessageQuery
	from, to string
}

func (c *MessagesListCommand) Synopsis() string { return "List messages" }
func (c *MessagesListCommand) Help() string {
	return "Usage: catapult messages list [options]" + flagHelp(c.flags())
}

func (c *MessagesListCommand) flags() *flag.FlagSet {
	f := c.flagSet("messages list")
	f.StringVar(&c.q.From, "from", "", "Only messages from this number.")
	f.StringVar(&c.q.To, "to", "", "Only messages to this number.")
	f.StringVar(&c.from, "since", "", "Only messages sent at or after this time.")
	f.StringVar(&c.to, "until", "", "Only messages sent before this time.")
	f.StringVar(&c.q.Direction, "direction", "", "in or out.")
	f.StringVar(&c.q.State, "state", "", "Message state.")
	f.IntVar(&c.q.Size, "size", 25, "Page size.")
	return f
}

func (c *MessagesListCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	var err error
	if c.q.FromDateTime, err = parseTime(c.from); err != nil {
		return c.fail(err)
	}
	if c.q.ToDateTime, err = parseTime(c.to); err != nil {
		return c.fail(err)
	}

	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	list, err := client.Messages.List(ctx, c.q)
	if err != nil {
		return c.fail(err)
	}
	if list == nil {
		list = []catapult.Message{}
	}
	return c.output(list)
}

// parseTime accepts most date formats; times without a zone are UTC.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return dateparse.ParseIn(s, time.UTC)
}

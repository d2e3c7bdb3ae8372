package cmd

import (
	"flag"

	"catapult-platform/pkg/catapult"
)

// NumbersSearchCommand searches inventory, or with order set, allocates
// the numbers it finds.
type NumbersSearchCommand struct {
	*Meta
	order bool

	local    catapult.LocalNumberQuery
	tollFree bool
}

func (c *NumbersSearchCommand) verb() string {
	if c.order {
		return "order"
	}
	return "search"
}

func (c *NumbersSearchCommand) Synopsis() string {
	if c.order {
		return "Order numbers from inventory"
	}
	return "Search available numbers"
}

func (c *NumbersSearchCommand) Help() string {
	return "Usage: catapult numbers " + c.verb() + " [options]" + flagHelp(c.flags())
}

func (c *NumbersSearchCommand) flags() *flag.FlagSet {
	f := c.flagSet("numbers " + c.verb())
	f.BoolVar(&c.tollFree, "toll-free", false, "Use toll-free inventory.")
	f.StringVar(&c.local.AreaCode, "area-code", "", "Area code (local only).")
	f.StringVar(&c.local.State, "state", "", "Two-letter state (local only).")
	f.StringVar(&c.local.City, "city", "", "City, requires -state (local only).")
	f.StringVar(&c.local.Zip, "zip", "", "Zip code (local only).")
	f.StringVar(&c.local.Pattern, "pattern", "", "Pattern with * and ? wildcards.")
	f.IntVar(&c.local.Quantity, "quantity", 1, "How many numbers.")
	return f
}

func (c *NumbersSearchCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	if !c.tollFree && c.local.AreaCode == "" && c.local.State == "" && c.local.Zip == "" {
		c.UI.Error("one of -area-code, -state or -zip is required for local numbers")
		return 1
	}

	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	tf := catapult.TollFreeNumberQuery{Quantity: c.local.Quantity, Pattern: c.local.Pattern}
	var out any
	switch {
	case c.order && c.tollFree:
		out, err = client.AvailableNumbers.OrderTollFree(ctx, tf)
	case c.order:
		out, err = client.AvailableNumbers.OrderLocal(ctx, c.local)
	case c.tollFree:
		out, err = client.AvailableNumbers.SearchTollFree(ctx, tf)
	default:
		out, err = client.AvailableNumbers.SearchLocal(ctx, c.local)
	}
	if err != nil {
		return c.fail(err)
	}
	return c.output(out)
}

type NumbersReleaseCommand struct{ *Meta }

func (c *NumbersReleaseCommand) Synopsis() string { return "Release an allocated number" }
func (c *NumbersReleaseCommand) Help() string {
	return "Usage: catapult numbers release <number-id-or-number>"
}

func (c *NumbersReleaseCommand) Run(args []string) int {
	pos, ok := c.parse(c.flagSet("numbers release"), args, 1)
	if !ok {
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := c.context()
	defer cancel()

	if err := client.PhoneNumbers.Delete(ctx, pos[0]); err != nil {
		return c.fail(err)
	}
	return c.output(map[string]any{"number": pos[0], "released": true})
}

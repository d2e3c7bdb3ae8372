package cmd

import (
	"flag"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"catapult-platform/internal/auth"
	"catapult-platform/internal/config"
	"catapult-platform/internal/routing"
)

// TokenCommand mints an API access token using JWT_SECRET from the
// environment.
type TokenCommand struct {
	*Meta

	// Auth overrides the environment in tests.
	Auth *config.AuthConfig

	subject, workspace, role string
	ttl                      time.Duration
}

func (c *TokenCommand) Synopsis() string { return "Issue an API access token" }
func (c *TokenCommand) Help() string {
	return "Usage: catapult token -subject <id> -workspace <id> [options]" + flagHelp(c.flags())
}

func (c *TokenCommand) flags() *flag.FlagSet {
	f := c.flagSet("token")
	f.StringVar(&c.subject, "subject", "", "(Required) Token subject.")
	f.StringVar(&c.workspace, "workspace", "", "(Required) Workspace id.")
	f.StringVar(&c.role, "role", string(auth.RoleOperator), "viewer, operator, owner or super_admin.")
	f.DurationVar(&c.ttl, "ttl", 0, "Token lifetime. Defaults to JWT_ACCESS_TTL.")
	return f
}

func (c *TokenCommand) Run(args []string) int {
	if _, ok := c.parse(c.flags(), args, 0); !ok {
		return 1
	}
	cfg := c.Auth
	if cfg == nil {
		loaded, err := config.LoadAuth()
		if err != nil {
			return c.fail(err)
		}
		cfg = &loaded
	}
	m, err := auth.NewManager(*cfg)
	if err != nil {
		return c.fail(err)
	}
	tok, err := m.Issue(time.Now(), c.subject, c.workspace, auth.Role(c.role), c.ttl)
	if err != nil {
		return c.fail(err)
	}
	c.UI.Output(tok)
	return 0
}

// RoutesCheckCommand validates a route file.
type RoutesCheckCommand struct {
	*Meta

	// FS defaults to the OS filesystem.
	FS afero.Fs
}

func (c *RoutesCheckCommand) Synopsis() string { return "Validate a route file" }
func (c *RoutesCheckCommand) Help() string     { return "Usage: catapult routes check <file>" }

func (c *RoutesCheckCommand) Run(args []string) int {
	pos, ok := c.parse(c.flagSet("routes check"), args, 1)
	if !ok {
		return 1
	}
	fsys := c.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	t, err := routing.LoadTable(fsys, pos[0])
	if err != nil {
		return c.fail(err)
	}
	c.UI.Output(fmt.Sprintf("%s: %d number(s) OK", pos[0], len(t.Numbers)))
	return 0
}

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memcell/internal/cli/connection"
	"github.com/yndnr/memcell/internal/cli/output"
	"github.com/yndnr/memcell/internal/infra/buildinfo"
)

// StatusView summarises one server's side HTTP port.
type StatusView struct {
	HTTP            string `json:"http" yaml:"http"`
	Ready           bool   `json:"ready" yaml:"ready"`
	Items           int    `json:"items" yaml:"items"`
	PendingExpiries int    `json:"pending_expiries" yaml:"pending_expiries"`
}

// VersionView pairs the client's build with the server's.
type VersionView struct {
	Client buildinfo.Info  `json:"client" yaml:"client"`
	Server *buildinfo.Info `json:"server,omitempty" yaml:"server,omitempty"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show readiness and keyspace size from the HTTP port",
		Action: statusAction,
	}
}

func httpClient(c *cli.Context) (*connection.HTTPClient, error) {
	env, err := GetEnv(c)
	if err != nil {
		return nil, err
	}
	if env.Config.HTTP == "" {
		return nil, fmt.Errorf("no HTTP address configured (use --http)")
	}
	return connection.NewHTTPClient(env.Config.HTTP, env.Config.Timeout), nil
}

func statusAction(c *cli.Context) error {
	client, err := httpClient(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	view := StatusView{HTTP: client.BaseURL(), Ready: client.Get(ctx, "/readyz", nil) == nil}

	var stats struct {
		Items           int `json:"items"`
		PendingExpiries int `json:"pending_expiries"`
	}
	if err := client.Get(ctx, "/stats", &stats); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	view.Items = stats.Items
	view.PendingExpiries = stats.PendingExpiries

	return render(c, view)
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client",
				Usage: "skip the server query",
			},
		},
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	view := VersionView{Client: buildinfo.Get()}
	if c.Bool("client") {
		return renderVersion(c, view)
	}

	client, err := httpClient(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var server buildinfo.Info
	if err := client.Get(ctx, "/version", &server); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	view.Server = &server
	return renderVersion(c, view)
}

// renderVersion flattens the nested view into rows for table output.
func renderVersion(c *cli.Context, view VersionView) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if env.Format != output.FormatTable {
		return render(c, view)
	}

	t := &output.Table{}
	t.SetHeaders("COMPONENT", "VERSION", "COMMIT", "BUILT", "GO")
	addRow := func(name string, i buildinfo.Info) {
		t.AddRow(name, i.Version, i.Commit, i.BuildTime, i.GoVersion)
	}
	addRow("client", view.Client)
	if view.Server != nil {
		addRow("server", *view.Server)
	}
	return render(c, t)
}

package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memcell/internal/cli/config"
	"github.com/yndnr/memcell/internal/cli/connection"
	"github.com/yndnr/memcell/internal/cli/output"
	"github.com/yndnr/memcell/internal/infra/buildinfo"
)

const envKey = "memcell.env"

// Env is the state shared by all commands of one invocation.
type Env struct {
	Config    *config.CLIConfig
	Manager   *connection.Manager
	Formatter output.Formatter
	Format    output.Format

	owned bool
}

// Close releases connections opened by this Env.
func (e *Env) Close() error {
	if e.Manager == nil {
		return nil
	}
	return e.Manager.Close()
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "memcell-cli",
		Usage:     "memcell command-line client",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			GetCommand(),
			StoreCommand("set"),
			StoreCommand("add"),
			StoreCommand("replace"),
			DeleteCommand(),
			StatusCommand(),
			VersionCommand(),
			ReplCommand(),
		},
		Before: setupEnv,
		After: func(c *cli.Context) error {
			if env, ok := c.App.Metadata[envKey].(*Env); ok && env.owned {
				return env.Close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file",
			Value: config.DefaultConfigPath(),
		},
		&cli.StringSliceFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "cache server address, repeatable; keys are spread across servers",
		},
		&cli.StringFlag{
			Name:  "http",
			Usage: "server HTTP address for status and version",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show extra table columns",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
		},
	}
}

// setupEnv builds the Env unless an enclosing REPL already supplied one.
func setupEnv(c *cli.Context) error {
	if _, ok := c.App.Metadata[envKey].(*Env); ok {
		return nil
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return err
	}

	if c.IsSet("server") {
		cfg.Servers = c.StringSlice("server")
	}
	if c.IsSet("http") {
		cfg.HTTP = c.String("http")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	c.App.Metadata[envKey] = &Env{
		Config:    cfg,
		Manager:   connection.NewManager(cfg.Servers, cfg.Timeout),
		Formatter: output.NewFormatter(format, c.Bool("wide")),
		Format:    format,
		owned:     true,
	}
	return nil
}

// GetEnv retrieves the shared Env from the context.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("cli environment not initialized")
}

// render writes data with the configured formatter.
func render(c *cli.Context, data any) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	return env.Formatter.Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

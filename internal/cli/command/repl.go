package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memcell/internal/cli/repl"
)

// ReplCommand returns the interactive mode command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive session",
		Action: func(c *cli.Context) error {
			env, err := GetEnv(c)
			if err != nil {
				return err
			}

			r := repl.New(lineExecutor(c, env),
				repl.WithIO(c.App.Reader, writer(c)),
				repl.WithHistory(repl.NewHistory(env.Config.HistoryFile)),
			)
			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return r.Run(ctx)
		},
	}
}

// lineExecutor runs each REPL line through a fresh command tree that shares
// env, so connections persist and nested repl sessions are refused.
func lineExecutor(parent *cli.Context, env *Env) repl.Executor {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "repl" {
			return errAlreadyInRepl
		}

		app := App()
		app.Metadata = map[string]any{envKey: env}
		app.Writer = writer(parent)
		app.ErrWriter = parent.App.ErrWriter
		app.Reader = parent.App.Reader
		app.HideVersion = true
		app.ExitErrHandler = func(*cli.Context, error) {}

		return app.RunContext(ctx, append([]string{parent.App.Name}, args...))
	}
}

var errAlreadyInRepl = errors.New("already in interactive mode")

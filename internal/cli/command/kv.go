package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memcell/internal/cli/connection"
	"github.com/yndnr/memcell/internal/cli/output"
)

// ItemView is how a fetched entry is printed.
type ItemView struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Flags  uint32 `json:"flags" yaml:"flags" table:",wide"`
	Server string `json:"server" yaml:"server" table:",wide"`
}

// ResultView reports the outcome of a write.
type ResultView struct {
	Key    string `json:"key" yaml:"key"`
	Result string `json:"result" yaml:"result"`
	Server string `json:"server" yaml:"server" table:",wide"`
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch one or more keys",
		ArgsUsage: "KEY [KEY...]",
		Action:    getAction,
	}
}

func getAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("get: at least one key required")
	}

	var (
		views  []ItemView
		misses []string
	)
	for _, key := range c.Args().Slice() {
		var item *connection.Item
		addr, err := withClient(c, key, func(ctx context.Context, cl *connection.Client) error {
			var err error
			item, err = cl.Get(ctx, key)
			return err
		})
		if errors.Is(err, connection.ErrNotFound) {
			misses = append(misses, key)
			continue
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		views = append(views, ItemView{
			Key:    key,
			Value:  output.FormatBytes(item.Value),
			Flags:  item.Flags,
			Server: addr,
		})
	}

	if len(views) > 0 {
		if err := render(c, views); err != nil {
			return err
		}
	}
	if len(misses) > 0 {
		return fmt.Errorf("not found: %s", strings.Join(misses, ", "))
	}
	return nil
}

// StoreCommand returns set, add or replace.
func StoreCommand(name string) *cli.Command {
	usage := map[string]string{
		"set":     "Store a value unconditionally",
		"add":     "Store a value only if the key is absent",
		"replace": "Store a value only if the key is present",
	}[name]

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "KEY VALUE (VALUE - reads stdin)",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  "flags",
				Usage: "opaque 32-bit client flags",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "time to live, e.g. 30s; 0 never expires",
			},
		},
		Action: func(c *cli.Context) error {
			return storeAction(c, name)
		},
	}
}

func storeAction(c *cli.Context, name string) error {
	if c.NArg() != 2 {
		return fmt.Errorf("%s: want KEY VALUE, got %d arguments", name, c.NArg())
	}
	key := c.Args().Get(0)

	value := []byte(c.Args().Get(1))
	if string(value) == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("%s: read stdin: %w", name, err)
		}
		value = data
	}

	flags := c.Uint("flags")
	if uint64(flags) > uint64(^uint32(0)) {
		return fmt.Errorf("%s: flags %d exceed 32 bits", name, flags)
	}
	item := &connection.Item{Key: key, Value: value, Flags: uint32(flags), TTL: c.Duration("ttl")}

	addr, err := withClient(c, key, func(ctx context.Context, cl *connection.Client) error {
		switch name {
		case "add":
			return cl.Add(ctx, item)
		case "replace":
			return cl.Replace(ctx, item)
		default:
			return cl.Set(ctx, item)
		}
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, key, err)
	}
	return render(c, []ResultView{{Key: key, Result: "stored", Server: addr}})
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"del"},
		Usage:     "Remove one or more keys",
		ArgsUsage: "KEY [KEY...]",
		Action:    deleteAction,
	}
}

func deleteAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("delete: at least one key required")
	}

	var views []ResultView
	var misses []string
	for _, key := range c.Args().Slice() {
		addr, err := withClient(c, key, func(ctx context.Context, cl *connection.Client) error {
			return cl.Delete(ctx, key)
		})
		if errors.Is(err, connection.ErrNotFound) {
			misses = append(misses, key)
			continue
		}
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		views = append(views, ResultView{Key: key, Result: "deleted", Server: addr})
	}

	if len(views) > 0 {
		if err := render(c, views); err != nil {
			return err
		}
	}
	if len(misses) > 0 {
		return fmt.Errorf("not found: %s", strings.Join(misses, ", "))
	}
	return nil
}

// withClient runs fn against the server owning key and returns that
// server's address. Transport failures drop the cached connection.
func withClient(c *cli.Context, key string, fn func(context.Context, *connection.Client) error) (string, error) {
	env, err := GetEnv(c)
	if err != nil {
		return "", err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if env.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, env.Config.Timeout)
		defer cancel()
	}

	cl, err := env.Manager.ClientFor(ctx, key)
	if err != nil {
		return "", err
	}

	err = fn(ctx, cl)
	var statusErr *connection.StatusError
	if err != nil && !errors.As(err, &statusErr) {
		env.Manager.Forget(cl)
	}
	return cl.Addr(), err
}

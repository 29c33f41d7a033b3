// taskctl is a command-line client for the taskboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"taskboard/internal/apiclient"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "taskctl",
		Usage:     "Manage taskboard projects and tickets",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Base URL of the taskboard API",
				Value:   "http://localhost:8080/api",
				EnvVars: []string{"TASKBOARD_SERVER"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Session token sent as the session cookie",
				EnvVars: []string{"TASKBOARD_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "cookie-name",
				Usage: "Name of the session cookie",
				Value: "session",
			},
		},
		Commands: []*cli.Command{
			cmdProjects,
			cmdTickets,
			cmdBoard,
			cmdDashboard,
			cmdWhoami,
		},
	}
}

var cmdWhoami = &cli.Command{
	Name:   "whoami",
	Usage:  "Show the user the session belongs to",
	Action: runWhoami,
}

func runWhoami(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	user, err := client.CurrentUser(c.Context)
	if err != nil {
		return apiErr(err)
	}
	if user.Email != "" {
		fmt.Fprintf(c.App.Writer, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%s (%s)\n", user.Name, user.ID)
	return nil
}

func newClient(c *cli.Context) (*apiclient.Client, error) {
	opts := []apiclient.Option{apiclient.WithCookieName(c.String("cookie-name"))}
	if token := c.String("token"); token != "" {
		opts = append(opts, apiclient.WithSessionToken(token))
	}
	return apiclient.New(c.String("server"), opts...)
}

// idArg parses the n-th positional argument as a positive id.
func idArg(c *cli.Context, n int, name string) (int, error) {
	raw := c.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// apiErr rewrites client errors into messages meant for a terminal.
func apiErr(err error) error {
	if errors.Is(err, apiclient.ErrUnauthenticated) {
		return errors.New("not signed in: pass --token or set TASKBOARD_TOKEN")
	}
	var e *apiclient.APIError
	if errors.As(err, &e) {
		if e.Field != "" {
			return fmt.Errorf("%s: %s", e.Field, e.Message)
		}
		return errors.New(e.Message)
	}
	return err
}

func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

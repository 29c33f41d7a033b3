package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"taskboard/internal/apiclient"
	"taskboard/internal/board"
	"taskboard/internal/events"
	"taskboard/internal/logger"

	"github.com/urfave/cli/v2"
)

var cmdBoard = &cli.Command{
	Name:      "board",
	Usage:     "Show a project's tickets grouped by status",
	ArgsUsage: "<projectID>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Keep running and redraw when another session changes the project",
		},
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server carrying invalidation events",
			Value:   "nats://localhost:4222",
			EnvVars: []string{"NATS_URL"},
		},
		&cli.StringFlag{
			Name:  "nats-subject",
			Usage: "Subject the API publishes invalidations on",
			Value: "taskboard.invalidations",
		},
	},
	Action: runBoard,
}

var cmdDashboard = &cli.Command{
	Name:   "dashboard",
	Usage:  "Show project totals and the most recent projects",
	Action: runDashboard,
}

func runBoard(c *cli.Context) error {
	projectID, err := idArg(c, 0, "projectID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := renderBoard(c.Context, client, c.App.Writer, projectID); err != nil {
		return err
	}
	if !c.Bool("watch") {
		return nil
	}
	return watchBoard(c, client, projectID)
}

// watchBoard redraws the board whenever an invalidation touches projectID,
// until the context is cancelled.
func watchBoard(c *cli.Context, client *apiclient.Client, projectID int) error {
	sub, err := events.NewSubscriber(c.String("nats-url"), c.String("nats-subject"), logger.NewNop())
	if err != nil {
		return fmt.Errorf("connect to events: %w", err)
	}
	defer sub.Close()

	changed := make(chan struct{}, 1)
	handle := func(e events.Invalidation) {
		client.ApplyInvalidation(e)
		if touches(e, projectID) {
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx, handle) }()

	for {
		select {
		case <-changed:
			fmt.Fprintln(c.App.Writer, "\n--- updated", time.Now().Format("15:04:05"), "---")
			if err := renderBoard(ctx, client, c.App.Writer, projectID); err != nil {
				return err
			}
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func touches(e events.Invalidation, projectID int) bool {
	if e.Kind == events.KindProject {
		return e.ID == projectID
	}
	return e.ProjectID == projectID || e.PreviousProjectID == projectID
}

func renderBoard(ctx context.Context, client *apiclient.Client, out io.Writer, projectID int) error {
	p, err := client.GetProject(ctx, projectID)
	if err != nil {
		return apiErr(err)
	}
	tickets, err := client.ListTickets(ctx, projectID)
	if err != nil {
		return apiErr(err)
	}

	fmt.Fprintf(out, "%s (%s)\n", p.Name, board.ProjectTypeLabel(p.Type))
	for _, col := range board.Build(tickets) {
		fmt.Fprintf(out, "\n%s (%d)\n", col.Label, col.Count())
		if col.Count() == 0 {
			fmt.Fprintln(out, "  no tickets")
			continue
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, t := range col.Tickets {
			fmt.Fprintf(w, "  #%d\t%s\t%s\t%s\n", t.ID, t.Title, board.PriorityLabel(t.Priority), deref(t.AssigneeName))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

const recentProjects = 5

func runDashboard(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	projects, err := client.ListProjects(c.Context)
	if err != nil {
		return apiErr(err)
	}
	s := board.Summarize(projects)

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total projects:\t%d\n", s.Total)
	fmt.Fprintf(w, "Active:\t%d\n", s.Active)
	fmt.Fprintf(w, "Archived:\t%d\n", s.Archived)
	fmt.Fprintf(w, "Student:\t%d\n", s.Student)
	fmt.Fprintf(w, "Personal:\t%d\n", s.Personal)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Fprintln(c.App.Writer, "\nNo projects yet. Create one with: taskctl projects create --name <name>")
		return nil
	}

	// The API lists projects by id, so the newest are at the end.
	fmt.Fprintln(c.App.Writer, "\nRecent projects")
	w = tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for i := len(projects) - 1; i >= 0 && i >= len(projects)-recentProjects; i-- {
		p := projects[i]
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", p.ID, p.Name, board.ProjectTypeLabel(p.Type), p.Status)
	}
	return w.Flush()
}

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"taskboard/internal/board"
	"taskboard/internal/schema"

	"github.com/urfave/cli/v2"
)

var cmdTickets = &cli.Command{
	Name:  "tickets",
	Usage: "Manage tickets",
	Subcommands: []*cli.Command{
		{
			Name:      "list",
			Usage:     "List the tickets of a project",
			ArgsUsage: "<projectID>",
			Action:    runTicketsList,
		},
		{
			Name:  "create",
			Usage: "Create a ticket",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "project", Required: true, Usage: "Project id"},
				&cli.StringFlag{Name: "title", Required: true},
				&cli.StringFlag{Name: "description"},
				&cli.StringFlag{Name: "status", Usage: "todo, in_progress, review or done"},
				&cli.StringFlag{Name: "priority", Usage: "low, medium or high"},
				&cli.StringFlag{Name: "assignee"},
				&cli.TimestampFlag{Name: "due", Layout: "2006-01-02", Usage: "Due date (YYYY-MM-DD)"},
			},
			Action: runTicketsCreate,
		},
		{
			Name:      "move",
			Usage:     "Move a ticket to another status column",
			ArgsUsage: "<ticketID> <status>",
			Action:    runTicketsMove,
		},
		{
			Name:      "delete",
			Usage:     "Delete a ticket",
			ArgsUsage: "<ticketID>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "project", Usage: "Project id, refreshes that project's ticket list"},
			},
			Action: runTicketsDelete,
		},
	},
}

func runTicketsList(c *cli.Context) error {
	projectID, err := idArg(c, 0, "projectID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	tickets, err := client.ListTickets(c.Context, projectID)
	if err != nil {
		return apiErr(err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for _, t := range tickets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, board.StatusLabel(t.Status), board.PriorityLabel(t.Priority),
			deref(t.AssigneeName), formatDue(t.DueDate))
	}
	return w.Flush()
}

func runTicketsCreate(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	input := schema.CreateTicketInput{
		Title:        c.String("title"),
		Description:  optionalString(c, "description"),
		Status:       schema.TicketStatus(c.String("status")),
		Priority:     schema.TicketPriority(c.String("priority")),
		ProjectID:    c.Int("project"),
		AssigneeName: optionalString(c, "assignee"),
	}
	if due := c.Timestamp("due"); due != nil {
		d := due.UTC()
		input.DueDate = &d
	}

	t, err := client.CreateTicket(c.Context, input)
	if err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Created ticket %d in project %d: %s\n", t.ID, t.ProjectID, t.Title)
	return nil
}

func runTicketsMove(c *cli.Context) error {
	id, err := idArg(c, 0, "ticketID")
	if err != nil {
		return err
	}
	status := schema.TicketStatus(c.Args().Get(1))
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	t, err := client.UpdateTicket(c.Context, id, schema.UpdateTicketInput{Status: schema.Some(status)})
	if err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Moved ticket %d to %s\n", t.ID, board.StatusLabel(t.Status))
	return nil
}

func runTicketsDelete(c *cli.Context) error {
	id, err := idArg(c, 0, "ticketID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteTicket(c.Context, id, c.Int("project")); err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Deleted ticket %d\n", id)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

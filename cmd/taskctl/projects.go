package main

import (
	"fmt"
	"text/tabwriter"

	"taskboard/internal/board"
	"taskboard/internal/schema"

	"github.com/urfave/cli/v2"
)

var cmdProjects = &cli.Command{
	Name:  "projects",
	Usage: "Manage projects",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List projects",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search name and description"},
				&cli.StringFlag{Name: "type", Usage: "Filter by type: all, student or personal", Value: "all"},
			},
			Action: runProjectsList,
		},
		{
			Name:      "show",
			Usage:     "Show a project",
			ArgsUsage: "<projectID>",
			Action:    runProjectsShow,
		},
		{
			Name:  "create",
			Usage: "Create a project",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "description"},
				&cli.StringFlag{Name: "type", Usage: "student or personal", Value: string(schema.ProjectTypePersonal)},
			},
			Action: runProjectsCreate,
		},
		{
			Name:      "archive",
			Usage:     "Archive a project",
			ArgsUsage: "<projectID>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "undo", Usage: "Make the project active again"},
			},
			Action: runProjectsArchive,
		},
		{
			Name:      "delete",
			Usage:     "Delete a project and its tickets",
			ArgsUsage: "<projectID>",
			Action:    runProjectsDelete,
		},
	},
}

func runProjectsList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	projects, err := client.ListProjects(c.Context)
	if err != nil {
		return apiErr(err)
	}
	projects = board.FilterProjects(projects, c.String("query"), c.String("type"))

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, board.ProjectTypeLabel(p.Type), p.Status)
	}
	return w.Flush()
}

func runProjectsShow(c *cli.Context) error {
	id, err := idArg(c, 0, "projectID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	p, err := client.GetProject(c.Context, id)
	if err != nil {
		return apiErr(err)
	}
	tickets, err := client.ListTickets(c.Context, id)
	if err != nil {
		return apiErr(err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", p.ID)
	fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	if p.Description != nil {
		fmt.Fprintf(w, "Description:\t%s\n", *p.Description)
	}
	fmt.Fprintf(w, "Type:\t%s\n", board.ProjectTypeLabel(p.Type))
	fmt.Fprintf(w, "Status:\t%s\n", p.Status)
	fmt.Fprintf(w, "Created:\t%s\n", p.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(w, "Tickets:\t%d\n", len(tickets))
	return w.Flush()
}

func runProjectsCreate(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	p, err := client.CreateProject(c.Context, schema.CreateProjectInput{
		Name:        c.String("name"),
		Description: optionalString(c, "description"),
		Type:        schema.ProjectType(c.String("type")),
	})
	if err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Created project %d: %s\n", p.ID, p.Name)
	return nil
}

func runProjectsArchive(c *cli.Context) error {
	id, err := idArg(c, 0, "projectID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	status := schema.ProjectStatusArchived
	if c.Bool("undo") {
		status = schema.ProjectStatusActive
	}
	p, err := client.UpdateProject(c.Context, id, schema.UpdateProjectInput{Status: schema.Some(status)})
	if err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Project %d is now %s\n", p.ID, p.Status)
	return nil
}

func runProjectsDelete(c *cli.Context) error {
	id, err := idArg(c, 0, "projectID")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteProject(c.Context, id); err != nil {
		return apiErr(err)
	}
	fmt.Fprintf(c.App.Writer, "Deleted project %d\n", id)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"webomat/internal/models"
	"webomat/internal/views"
)

var projectFlags = []cli.Flag{
	&cli.StringFlag{Name: "package", Usage: "package name, e.g. start or premium"},
	&cli.StringFlag{Name: "status"},
	&cli.Float64Flag{Name: "price-setup"},
	&cli.Float64Flag{Name: "price-monthly"},
	&cli.StringFlag{Name: "domain"},
	&cli.StringFlag{Name: "notes"},
}

func businessCommand() *cli.Command {
	return &cli.Command{
		Name:    "business",
		Aliases: []string{"biz"},
		Usage:   "show a business and manage its projects and activities",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				ArgsUsage: "BUSINESS_ID",
				Action: func(c *cli.Context) error {
					e, v, err := loadBusiness(c)
					if err != nil {
						return err
					}
					printBusiness(e, v.State())
					return nil
				},
			},
			{
				Name:      "add-project",
				Usage:     "create a project for the business",
				ArgsUsage: "BUSINESS_ID",
				Flags:     projectFlags,
				Action: func(c *cli.Context) error {
					e, v, err := loadBusiness(c)
					if err != nil {
						return err
					}
					v.OpenProjectModal(nil)
					if err := v.CreateProject(c.Context, projectInput(c)); err != nil {
						return failed(err, !errors.Is(err, views.ErrBusy))
					}
					printBusiness(e, v.State())
					return nil
				},
			},
			{
				Name:      "update-project",
				Usage:     "change an existing project",
				ArgsUsage: "BUSINESS_ID PROJECT_ID",
				Flags:     projectFlags,
				Action: func(c *cli.Context) error {
					projectID := strings.TrimSpace(c.Args().Get(1))
					if projectID == "" {
						return errors.New("project ID is required")
					}
					e, v, err := loadBusiness(c)
					if err != nil {
						return err
					}
					st := v.State()
					var editing *models.Project
					for i := range st.Projects {
						if st.Projects[i].ID == projectID {
							editing = &st.Projects[i]
						}
					}
					if editing == nil {
						return fmt.Errorf("project %s does not belong to business %s", projectID, st.Business.ID)
					}
					v.OpenProjectModal(editing)
					if err := v.UpdateProject(c.Context, projectID, mergeProject(*editing, c)); err != nil {
						return failed(err, !errors.Is(err, views.ErrBusy))
					}
					printBusiness(e, v.State())
					return nil
				},
			},
			{
				Name:      "log",
				Usage:     "record an activity such as a call or meeting",
				ArgsUsage: "BUSINESS_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Value: "call", Usage: "call, email, meeting or note"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true},
					&cli.StringFlag{Name: "new-status", Usage: "move the business to this status"},
				},
				Action: func(c *cli.Context) error {
					e, v, err := loadBusiness(c)
					if err != nil {
						return err
					}
					in := models.ActivityInput{
						Type:        c.String("type"),
						Description: c.String("description"),
						NewStatus:   c.String("new-status"),
					}
					if err := v.AddActivity(c.Context, in); err != nil {
						return failed(err, !errors.Is(err, views.ErrBusy))
					}
					printBusiness(e, v.State())
					return nil
				},
			},
		},
	}
}

func loadBusiness(c *cli.Context) (*env, *views.BusinessDetail, error) {
	e := getEnv(c)
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return nil, nil, errors.New("business ID is required")
	}
	v := views.NewBusinessDetail(e.client, id, e.logger, e.notifier())
	if err := v.Load(c.Context); err != nil {
		return nil, nil, failed(err, false)
	}
	return e, v, nil
}

func projectInput(c *cli.Context) models.ProjectInput {
	in := models.ProjectInput{
		PackageName: c.String("package"),
		Status:      c.String("status"),
		Domain:      c.String("domain"),
		Notes:       c.String("notes"),
	}
	if c.IsSet("price-setup") {
		v := c.Float64("price-setup")
		in.PriceSetup = &v
	}
	if c.IsSet("price-monthly") {
		v := c.Float64("price-monthly")
		in.PriceMonth = &v
	}
	return in
}

// mergeProject applies only the flags that were given.
func mergeProject(p models.Project, c *cli.Context) models.ProjectInput {
	in := models.ProjectInput{
		PackageName: p.PackageName,
		Status:      p.Status,
		PriceSetup:  p.PriceSetup,
		PriceMonth:  p.PriceMonth,
		Domain:      p.Domain,
		Notes:       p.Notes,
	}
	set := projectInput(c)
	if c.IsSet("package") {
		in.PackageName = set.PackageName
	}
	if c.IsSet("status") {
		in.Status = set.Status
	}
	if c.IsSet("domain") {
		in.Domain = set.Domain
	}
	if c.IsSet("notes") {
		in.Notes = set.Notes
	}
	if set.PriceSetup != nil {
		in.PriceSetup = set.PriceSetup
	}
	if set.PriceMonth != nil {
		in.PriceMonth = set.PriceMonth
	}
	return in
}

func printBusiness(e *env, st views.BusinessState) {
	if st.Business != nil {
		fmt.Fprintf(e.out, "%s (%s)\n", st.Business.Name, st.Business.Status)
		if st.Business.NextFollow != nil {
			fmt.Fprintf(e.out, "next follow-up: %s\n", *st.Business.NextFollow)
		}
	}

	fmt.Fprintln(e.out, "\nProjects")
	tw := table(e.out, "ID", "PACKAGE", "STATUS", "SETUP", "MONTHLY", "DOMAIN")
	for _, p := range st.Projects {
		row(tw, p.ID, p.PackageName, p.Status, price(p.PriceSetup), price(p.PriceMonth), p.Domain)
	}
	_ = tw.Flush()

	fmt.Fprintln(e.out, "\nActivities")
	tw = table(e.out, "WHEN", "TYPE", "DESCRIPTION")
	for _, a := range st.Activities {
		row(tw, a.OccurredAt.Format("2006-01-02 15:04"), a.Type, a.Description)
	}
	_ = tw.Flush()
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	return money(*v, "")
}

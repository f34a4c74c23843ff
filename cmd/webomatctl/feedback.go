package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"webomat/internal/feedback"
	"webomat/internal/models"
	"webomat/internal/views"
)

func feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "send feedback or work the admin inbox",
		Subcommands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "send feedback to the Webomat team",
				ArgsUsage: "TEXT...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: models.FeedbackCategoryOther, Usage: "bug, idea, ux or other"},
					&cli.StringFlag{Name: "priority", Value: models.FeedbackPriorityMedium, Usage: "low, medium or high"},
					&cli.StringFlag{Name: "page", Usage: "page the feedback is about"},
					&cli.PathFlag{Name: "screenshot", Usage: "PNG, JPEG or WebP image"},
				},
				Action: sendFeedback,
			},
			{
				Name:  "inbox",
				Usage: "list feedback (admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status"},
					&cli.StringFlag{Name: "category"},
				},
				Action: feedbackInbox,
			},
			{
				Name:      "resolve",
				Usage:     "set the status of a feedback item (admin)",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Value: models.FeedbackStatusDone, Usage: "open, in_progress, done or rejected"},
					&cli.StringFlag{Name: "note", Usage: "admin note"},
				},
				Action: resolveFeedback,
			},
		},
	}
}

func sendFeedback(c *cli.Context) error {
	e := getEnv(c)
	in := feedback.Input{
		Content:  strings.Join(c.Args().Slice(), " "),
		Category: c.String("category"),
		Priority: c.String("priority"),
		PageURL:  c.String("page"),
	}
	if path := c.Path("screenshot"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read screenshot: %w", err)
		}
		in.Screenshot = &feedback.Screenshot{ContentType: http.DetectContentType(data), Data: data}
	}

	fb, err := feedback.NewService(e.client, e.uploader).Submit(c.Context, in)
	if err != nil {
		return failed(err, false)
	}
	e.notifier().Success("Thank you for your feedback")
	e.logger.Infof("feedback %s submitted", fb.ID)
	return nil
}

func adminGate(c *cli.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if !id.IsAdmin() {
		return errors.New("the feedback inbox is only available to admins")
	}
	return nil
}

func feedbackInbox(c *cli.Context) error {
	if err := adminGate(c); err != nil {
		return err
	}
	e := getEnv(c)
	v := views.NewFeedbackAdmin(e.client, e.logger, e.notifier())
	if err := v.Load(c.Context, models.FeedbackFilter{Status: c.String("status"), Category: c.String("category")}); err != nil {
		return failed(err, false)
	}
	printFeedback(e, v.Items())
	return nil
}

func resolveFeedback(c *cli.Context) error {
	if err := adminGate(c); err != nil {
		return err
	}
	e := getEnv(c)
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return errors.New("feedback ID is required")
	}
	v := views.NewFeedbackAdmin(e.client, e.logger, e.notifier())
	if err := v.Load(c.Context, models.FeedbackFilter{}); err != nil {
		return failed(err, false)
	}
	if err := v.UpdateStatus(c.Context, id, c.String("status"), c.String("note")); err != nil {
		shown := !errors.Is(err, views.ErrBusy) && !errors.Is(err, views.ErrInvalidFeedbackStatus)
		return failed(err, shown)
	}
	printFeedback(e, v.Items())
	return nil
}

func printFeedback(e *env, items []models.Feedback) {
	tw := table(e.out, "ID", "CREATED", "CATEGORY", "PRIORITY", "STATUS", "FROM", "CONTENT")
	for _, f := range items {
		content := f.Content
		if r := []rune(content); len(r) > 60 {
			content = string(r[:57]) + "..."
		}
		row(tw, f.ID, f.CreatedAt.Format("2006-01-02"), f.Category, f.Priority, f.Status, f.UserName,
			strings.ReplaceAll(content, "\n", " "))
	}
	_ = tw.Flush()
}

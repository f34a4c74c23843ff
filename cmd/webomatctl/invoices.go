package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"

	"webomat/internal/invoice/fsm"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
	"webomat/internal/views"
)

func invoicesCommand() *cli.Command {
	return &cli.Command{
		Name:    "invoices",
		Aliases: []string{"inv"},
		Usage:   "list invoices and move them through their lifecycle",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list invoices with the actions available to you",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: strings.Join(fsm.Statuses, ", ")},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 20},
				},
				Action: listInvoices,
			},
			{
				Name:      "show",
				Usage:     "show one invoice",
				ArgsUsage: "ID",
				Action:    showInvoice,
			},
			transitionCommand("submit", fsm.ActionSubmitForApproval, "submit a draft for approval"),
			transitionCommand("issue", fsm.ActionIssue, "issue a draft directly"),
			transitionCommand("approve", fsm.ActionApprove, "approve a pending invoice"),
			transitionCommand("reject", fsm.ActionReject, "return a pending invoice to draft",
				&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "shown to the seller"}),
			transitionCommand("pay", fsm.ActionMarkPaid, "mark an invoice as paid",
				&cli.StringFlag{Name: "date", Usage: "payment date YYYY-MM-DD, defaults to today"}),
			transitionCommand("cancel", fsm.ActionCancel, "cancel an invoice"),
			{
				Name:      "pdf",
				Usage:     "generate the PDF and print its URL",
				ArgsUsage: "ID",
				Action:    invoicePDF,
			},
		},
	}
}

func listInvoices(c *cli.Context) error {
	e := getEnv(c)
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	status := c.String("status")
	if status != "" && !fsm.IsKnown(status) {
		return fmt.Errorf("unknown status %q", status)
	}

	list := views.NewInvoiceList(e.client, lifecycle.New(e.client, e.logger), id.Role, e.logger, e.notifier())
	f := models.InvoiceFilter{Status: status, Page: c.Int("page"), PageSize: c.Int("page-size")}
	if err := list.Load(c.Context, f); err != nil {
		return failed(err, false)
	}

	page := list.Page()
	tw := table(e.out, "ID", "NUMBER", "BUSINESS", "TOTAL", "DUE", "STATUS", "ACTIONS")
	for _, inv := range page.Items {
		row(tw, inv.ID, inv.InvoiceNumber, inv.BusinessName, money(inv.AmountTotal, inv.Currency),
			inv.DueDate, inv.Status, actionList(list.Actions(inv.ID)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "page %d, %d of %d invoices\n", page.Page, len(page.Items), page.Total)
	return nil
}

func actionList(actions []fsm.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

func loadInvoice(c *cli.Context) (*env, *views.InvoiceDetail, error) {
	e := getEnv(c)
	invoiceID := strings.TrimSpace(c.Args().First())
	if invoiceID == "" {
		return nil, nil, errors.New("invoice ID is required")
	}
	id, err := currentIdentity(c)
	if err != nil {
		return nil, nil, err
	}
	v := views.NewInvoiceDetail(e.client, lifecycle.New(e.client, e.logger), invoiceID, id.Role, e.logger, e.notifier())
	if err := v.Load(c.Context); err != nil {
		return nil, nil, failed(err, false)
	}
	return e, v, nil
}

func showInvoice(c *cli.Context) error {
	e, v, err := loadInvoice(c)
	if err != nil {
		return err
	}
	printInvoice(e, v.Invoice(), v.Actions())
	return nil
}

func printInvoice(e *env, inv *models.Invoice, actions []fsm.Action) {
	tw := table(e.out, "FIELD", "VALUE")
	row(tw, "id", inv.ID)
	row(tw, "number", inv.InvoiceNumber)
	row(tw, "business", inv.BusinessName)
	row(tw, "total", money(inv.AmountTotal, inv.Currency))
	row(tw, "vat", fmt.Sprintf("%.0f%% (%s)", inv.VATRate, money(inv.VATAmount, inv.Currency)))
	row(tw, "issued", inv.IssueDate)
	row(tw, "due", inv.DueDate)
	row(tw, "paid", orDash(inv.PaidDate))
	row(tw, "status", inv.Status)
	if inv.RejectedReason != nil {
		row(tw, "rejected", *inv.RejectedReason)
	}
	row(tw, "actions", actionList(actions))
	_ = tw.Flush()
}

func transitionCommand(name string, action fsm.Action, usage string, flags ...cli.Flag) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "ID",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			e, v, err := loadInvoice(c)
			if err != nil {
				return err
			}
			// Only actions the screen would render can be run.
			if available := v.Actions(); !slices.Contains(available, action) {
				inv := v.Invoice()
				switch {
				case fsm.IsTerminal(inv.Status):
					return fmt.Errorf("%s is not available for invoice %s: %s is final", action, inv.InvoiceNumber, inv.Status)
				case fsm.Permits(inv.Status, action):
					return fmt.Errorf("%s is not available for invoice %s: only admins can %s it", action, inv.InvoiceNumber, name)
				}
				return fmt.Errorf("%s is not available for invoice %s in status %s (available: %s)",
					action, inv.InvoiceNumber, inv.Status, actionList(available))
			}

			req := lifecycle.Request{Action: action, Reason: c.String("reason"), PaidDate: c.String("date")}
			if err := v.Apply(c.Context, req); err != nil {
				return failed(err, !errors.Is(err, views.ErrBusy))
			}
			printInvoice(e, v.Invoice(), v.Actions())
			return nil
		},
	}
}

func invoicePDF(c *cli.Context) error {
	e := getEnv(c)
	invoiceID := strings.TrimSpace(c.Args().First())
	if invoiceID == "" {
		return errors.New("invoice ID is required")
	}
	pdf, err := e.client.GenerateInvoicePDF(c.Context, invoiceID)
	if err != nil {
		return failed(err, false)
	}
	fmt.Fprintln(e.out, pdf.PDFURL)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"webomat/internal/views"
)

// consoleNotifier renders toasts as single lines.
type consoleNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintln(n.out, "✓ "+msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintln(n.errOut, "✗ "+msg) }

func (e *env) notifier() consoleNotifier {
	return consoleNotifier{out: e.out, errOut: e.errOut}
}

// errReported marks a failure the user has already seen as a toast.
var errReported = errors.New("reported")

// failed turns err into the user-facing message.
func failed(err error, shown bool) error {
	if shown {
		return errReported
	}
	return errors.New(views.Message(err))
}

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func money(amount float64, currency string) string {
	if currency == "" {
		currency = "CZK"
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

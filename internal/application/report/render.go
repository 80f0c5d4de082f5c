package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/order-reconciler/internal/domain/validator"
)

// Render writes the digest as plain text
func Render(w io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	s := rep.Summary

	fmt.Fprintln(tw, "Reconciliation summary")
	fmt.Fprintln(tw, strings.Repeat("-", 60))
	fmt.Fprintf(tw, "Orders=%d Entries=%d Warnings=%d\n", s.Orders, s.Entries, s.Warnings)
	fmt.Fprintf(tw, "Matched: normal=%d split=%d consolidated=%d\n", s.NormalMatches, s.SplitPayments, s.ConsolidatedCharges)
	fmt.Fprintf(tw, "Unmatched: orders=%d entries=%d\n", s.UnmatchedOrders, s.UnmatchedEntries)

	if len(rep.Lines) > 0 {
		fmt.Fprintln(tw, "\nMatches:")
		for _, l := range rep.Lines {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", l.Kind, l.Confidence, l.Description)
		}
	}

	if len(rep.UnmatchedOrders) > 0 {
		fmt.Fprintln(tw, "\nUnmatched orders:")
		for _, o := range rep.UnmatchedOrders {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", o.OrderID, o.Date.Format("2006-01-02"),
				validator.FormatCents(o.TotalCents), o.PaymentLabel)
		}
	}

	if len(rep.UnmatchedEntries) > 0 {
		fmt.Fprintln(tw, "\nUnmatched entries:")
		for _, e := range rep.UnmatchedEntries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", e.EntryID, e.Date.Format("2006-01-02"),
				validator.FormatCents(e.AmountCents), e.AccountLabel, e.CounterpartyLabel)
		}
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintln(tw, "\nWarnings:")
		for _, warn := range rep.Warnings {
			fmt.Fprintf(tw, "  %s %s (#%d):\t%s\n", warn.Source, warn.RecordID, warn.Index, warn.Reason)
		}
	}

	if len(rep.Memos) > 0 {
		fmt.Fprintln(tw, "\nProposed memos:")
		for _, m := range rep.Memos {
			fmt.Fprintf(tw, "  %s\t%s\n", m.EntryID, m.Text)
		}
	}

	return tw.Flush()
}

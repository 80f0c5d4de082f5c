package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/application/report"
	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/domain/validator"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, dryRun bool) {
	mode := "RECORDED"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "reconcile: %s mode\n\n", mode)
}

// PrintRunResult prints the digest of a run
func PrintRunResult(w io.Writer, out *service.RunResult) error {
	if out.ExcludedOrders > 0 || out.ExcludedEntries > 0 {
		fmt.Fprintf(w, "Excluded (already reconciled): orders=%d entries=%d\n\n", out.ExcludedOrders, out.ExcludedEntries)
	}
	if err := report.Render(w, out.Report); err != nil {
		return err
	}
	if out.RunID != "" {
		fmt.Fprintf(w, "\nRun %s recorded.\n", out.RunID)
	}
	return nil
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRuns prints one line per run
func PrintRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-9s  %-19s  %s\n", "ID", "STATUS", "STARTED", "MATCHED/UNMATCHED")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range runs {
		s := r.Summary
		matched := s.NormalMatches + s.SplitPayments + s.ConsolidatedCharges
		fmt.Fprintf(w, "%-36s  %-9s  %-19s  %d/%d+%d\n",
			r.ID, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"),
			matched, s.UnmatchedOrders, s.UnmatchedEntries)
	}
}

// PrintRunDetail prints a run and its stored matches
func PrintRunDetail(w io.Writer, detail *service.RunDetail) {
	r := detail.Run
	fmt.Fprintf(w, "Run %s (%s)\n", r.ID, r.Status)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Started: %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", r.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Orders: %s\nLedger: %s\n", r.OrdersSource, r.LedgerSource)
	if r.ErrorMessage != "" {
		fmt.Fprintf(w, "Error: %s\n", r.ErrorMessage)
	}

	if len(detail.Matches) == 0 {
		fmt.Fprintln(w, "\nNo matches.")
		return
	}
	fmt.Fprintln(w, "\nMatches:")
	for _, m := range detail.Matches {
		fmt.Fprintf(w, "  %3d  %-19s  %3d  orders=%s entries=%s",
			m.Seq, m.Kind, m.Confidence,
			strings.Join(m.OrderIDs, ","), strings.Join(m.EntryIDs, ","))
		if m.OrderCents != 0 {
			fmt.Fprintf(w, "  %s", validator.FormatCents(m.OrderCents))
		}
		fmt.Fprintln(w)
	}
}

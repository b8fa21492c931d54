package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"distillery/internal/planning"
)

func render(w io.Writer, format string, pr planning.Projection, lines []planning.PurchaseLine) error {
	switch format {
	case "text":
		return renderText(w, pr, lines)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Timelines  []planning.StockTimeline `json:"timelines"`
			Months     []planning.MonthStats    `json:"months"`
			Purchasing []planning.PurchaseLine  `json:"purchasing"`
		}{pr.Timelines, planning.MonthlyStats(pr.Batches), lines})
	case "csv":
		return planning.WritePurchaseCSV(w, lines)
	case "xlsx":
		return planning.WritePurchaseXLSX(w, lines, pr.Timelines)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderText(w io.Writer, pr planning.Projection, lines []planning.PurchaseLine) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Batches:\t%d\n", len(pr.Batches))
	for _, p := range pr.Batches {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Batch.ScheduledMonthName, p.Batch.Product, p.WorstStatus())
	}

	runningOut := pr.RunningOut()
	fmt.Fprintf(tw, "\nRunning out:\t%d\n", len(runningOut))
	for _, t := range runningOut {
		e, _ := t.FirstRunOut()
		fmt.Fprintf(tw, "  %s\t%s %s\tin %s (%s)\tfinal %s\n",
			t.Material, t.InitialStock, t.UOM, e.Month, e.Product, t.FinalStock())
	}

	fmt.Fprintf(tw, "\nPurchasing list:\t%d lines\n", len(lines))
	for _, l := range lines {
		fmt.Fprintf(tw, "  %s\t%s\t%s %s\n", l.Name, l.Category, l.Shortage, l.UOM)
	}
	return tw.Flush()
}

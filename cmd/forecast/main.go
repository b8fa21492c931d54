// Command forecast projects a production plan against a stock snapshot offline
// and prints the run-out report and purchasing list.
//
//	forecast -plan plan.json -snapshot stock.json -format text
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"distillery/internal/planning"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	PlanFile     string
	SnapshotFile string
	RecipesFile  string
	Format       string
	Month        string
	Category     string
	Output       string
}

func main() {
	var opts options
	flag.StringVar(&opts.PlanFile, "plan", "", "Path to production plan JSON (required)")
	flag.StringVar(&opts.SnapshotFile, "snapshot", "", "Path to stock snapshot JSON: {\"material\": quantity}")
	flag.StringVar(&opts.RecipesFile, "recipes", "", "Path to recipe table JSON (default: built-in gin recipes)")
	flag.StringVar(&opts.Format, "format", "text", "Output format: text, json, csv, xlsx")
	flag.StringVar(&opts.Month, "month", "", "Only count shortages of batches scheduled in this month name")
	flag.StringVar(&opts.Category, "category", "", "Only list shortages of this category, e.g. Botanicals")
	flag.StringVar(&opts.Output, "output", "", "Write to this file instead of stdout (required for xlsx)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(opts); err != nil {
		log.Error().Err(err).Msg("forecast failed")
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.PlanFile == "" {
		return fmt.Errorf("-plan is required")
	}
	if opts.Format == "xlsx" && opts.Output == "" {
		return fmt.Errorf("-format xlsx needs -output")
	}

	batches, err := planning.LoadPlan(opts.PlanFile)
	if err != nil {
		return err
	}
	snap := planning.Snapshot{}
	if opts.SnapshotFile != "" {
		if snap, err = planning.LoadSnapshot(opts.SnapshotFile); err != nil {
			return err
		}
	}
	var recipes planning.RecipeTable
	if opts.RecipesFile != "" {
		if recipes, err = planning.LoadRecipes(opts.RecipesFile); err != nil {
			return err
		}
	}

	pr := planning.NewProjector(planning.NewCalculator(recipes)).Project(batches, snap)
	var lines []planning.PurchaseLine
	if opts.Month != "" {
		lines = planning.AggregateShortagesForMonth(pr.Batches, opts.Month)
	} else {
		lines = planning.AggregateShortages(pr.Batches)
	}
	lines = planning.FilterCategory(lines, opts.Category)

	var w io.Writer = os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	log.Debug().Int("batches", len(batches)).Int("materials", len(pr.Timelines)).Msg("projected")
	return render(w, opts.Format, pr, lines)
}

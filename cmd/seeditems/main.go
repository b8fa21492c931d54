// Command seeditems registers the packaging and botanical catalog the planner
// expects for an organization. Items that already exist are left alone.
//
//	seeditems -org 6f1c1a8e-3a57-4d7e-9b7a-0d4b2f7f9a10
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"sort"

	"distillery/internal/config"
	"distillery/internal/dto"
	"distillery/internal/infra"
	"distillery/internal/planning"
	"distillery/internal/repository"
	"distillery/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	orgFlag := flag.String("org", "", "Organization ID (required)")
	recipesFile := flag.String("recipes", "", "Recipe table JSON (default: built-in gin recipes)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	orgID, err := uuid.Parse(*orgFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("-org must be a uuid")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	var recipes planning.RecipeTable
	if *recipesFile != "" {
		if recipes, err = planning.LoadRecipes(*recipesFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load recipes")
		}
	}

	ledgerSvc := service.NewLedgerService(
		repository.NewItemRepository(db),
		repository.NewLotRepository(db),
		repository.NewInventoryTxnRepository(db),
		nil, nil,
	)

	created, skipped := 0, 0
	for _, req := range catalog(recipes) {
		_, err := ledgerSvc.CreateItem(context.Background(), orgID, req)
		switch {
		case errors.Is(err, service.ErrItemExists):
			skipped++
		case err != nil:
			log.Fatal().Err(err).Str("item", req.Name).Msg("seed failed")
		default:
			created++
		}
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("catalog seeded")
}

// catalog lists every material a one-bottle-per-size batch of each recipe
// product would draw, which is every item the planner can ask for.
func catalog(recipes planning.RecipeTable) []dto.CreateItemRequest {
	calc := planning.NewCalculator(recipes)

	products := make([]string, 0, len(calc.Recipes()))
	for p := range calc.Recipes() {
		products = append(products, p)
	}
	sort.Strings(products)

	seen := make(map[string]bool)
	var out []dto.CreateItemRequest
	for _, product := range products {
		reqs := calc.Requirements(planning.ScheduledBatch{
			Product:        product,
			ProductionType: planning.ProductionTypeGin,
			Packs: []planning.PackQuantity{
				{SizeML: 700, Units: 1},
				{SizeML: 200, Units: 1},
				{SizeML: 1000, Units: 1},
			},
		})
		for _, r := range reqs {
			if seen[r.Material] {
				continue
			}
			seen[r.Material] = true
			out = append(out, dto.CreateItemRequest{Name: r.Material, Category: r.Category, UOM: r.UOM})
		}
	}
	return out
}

package planning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Bottles per outer carton for the 700 ml size.
const cartonPack = 6

var (
	half        = decimal.NewFromFloat(0.5)
	primarySize = map[int]int{700: 0, 200: 1, 1000: 2}
)

// Calculator turns a scheduled batch into material requirements.
type Calculator struct {
	recipes RecipeTable
}

// NewCalculator uses recipes for botanical lookups; nil falls back to DefaultRecipes.
func NewCalculator(recipes RecipeTable) *Calculator {
	if recipes == nil {
		recipes = DefaultRecipes()
	}
	return &Calculator{recipes: recipes}
}

// Recipes exposes the table the calculator was built with.
func (c *Calculator) Recipes() RecipeTable { return c.recipes }

// Requirements lists what b needs: packaging per non-empty pack size, then the
// recipe's botanicals for gin batches. Botanical weights are a fixed per-charge
// amount and do not scale with the bottle count. Unknown products yield no botanicals.
func (c *Calculator) Requirements(b ScheduledBatch) []MaterialRequirement {
	var reqs []MaterialRequirement
	for _, p := range packsInOrder(b.Packs) {
		reqs = append(reqs, packagingFor(b.Product, p.SizeML, p.Units)...)
	}
	if strings.EqualFold(strings.TrimSpace(b.ProductionType), ProductionTypeGin) {
		for _, ch := range c.recipes[b.Product] {
			reqs = append(reqs, MaterialRequirement{
				Material: ch.Name,
				Category: CategoryBotanicals,
				UOM:      UOMGrams,
				Needed:   ch.Grams,
			})
		}
	}
	return reqs
}

// Evaluate grades reqs against stock, which is not modified. Each requirement is
// compared with the full stock figure, as if it were the only draw.
func Evaluate(reqs []MaterialRequirement, stock Snapshot) []MaterialRequirement {
	out := make([]MaterialRequirement, len(reqs))
	for i, r := range reqs {
		out[i] = grade(r, stock[r.Material])
	}
	return out
}

// Classify grades a requirement. Stock at or below zero is CRITICAL, under half
// of the need is LOW, under the need is ADEQUATE and anything else is GOOD.
func Classify(needed, available decimal.Decimal) Status {
	switch {
	case !available.IsPositive():
		return StatusCritical
	case available.LessThan(needed.Mul(half)):
		return StatusLow
	case available.LessThan(needed):
		return StatusAdequate
	default:
		return StatusGood
	}
}

// Shortage is max(0, needed - available).
func Shortage(needed, available decimal.Decimal) decimal.Decimal {
	s := needed.Sub(available)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

func grade(r MaterialRequirement, available decimal.Decimal) MaterialRequirement {
	r.Available = available
	r.Shortage = Shortage(r.Needed, available)
	r.StockAfter = available.Sub(r.Needed)
	r.Status = Classify(r.Needed, available)
	return r
}

// packsInOrder merges duplicate sizes, drops empty ones and orders 700, 200, 1000
// first with any other size after them in ascending order.
func packsInOrder(packs []PackQuantity) []PackQuantity {
	units := make(map[int]int64)
	for _, p := range packs {
		if p.Units > 0 && p.SizeML > 0 {
			units[p.SizeML] += p.Units
		}
	}
	out := make([]PackQuantity, 0, len(units))
	for size, n := range units {
		out = append(out, PackQuantity{SizeML: size, Units: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := primarySize[out[i].SizeML]
		rj, jok := primarySize[out[j].SizeML]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].SizeML < out[j].SizeML
		}
	})
	return out
}

func packagingFor(product string, sizeML int, units int64) []MaterialRequirement {
	n := decimal.NewFromInt(units)
	pkg := func(name string, q decimal.Decimal) MaterialRequirement {
		return MaterialRequirement{Material: name, Category: CategoryPackaging, UOM: UOMUnits, Needed: q}
	}
	size := fmt.Sprintf("%dml", sizeML)
	closure := "Cap"
	if sizeML == 700 || sizeML == 1000 {
		closure = "Cork"
	}

	reqs := []MaterialRequirement{
		pkg("Bottle "+size, n),
		pkg(closure+" "+size, n),
		pkg("Tamper Sleeve "+size, n),
	}
	if sizeML == 700 {
		cartons := (units + cartonPack - 1) / cartonPack
		reqs = append(reqs, pkg("Carton 6-pack 700ml", decimal.NewFromInt(cartons)))
	}
	return append(reqs, pkg(fmt.Sprintf("Label %s - %s", size, product), n))
}

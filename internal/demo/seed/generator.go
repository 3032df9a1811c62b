// Package seed fills a local DuckDB table with deterministic sales orders so
// the assistant can be tried without a Databricks workspace.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Order is one generated sales row.
type Order struct {
	OrderID   int64
	OrderDate time.Time
	Customer  string
	Product   string
	Category  string
	Region    string
	Channel   string
	Quantity  int
	UnitPrice float64
	Revenue   float64
}

type product struct {
	name     string
	category string
	price    float64
}

var catalogue = []product{
	{"Trail Runner Shoes", "footwear", 119.00},
	{"City Sneakers", "footwear", 79.50},
	{"Merino Socks", "apparel", 14.90},
	{"Rain Shell Jacket", "apparel", 189.00},
	{"Thermal Base Layer", "apparel", 54.00},
	{"Hydration Pack", "gear", 64.99},
	{"Trekking Poles", "gear", 89.00},
	{"Headlamp", "gear", 39.95},
	{"Camp Stove", "camping", 99.00},
	{"Two-Person Tent", "camping", 349.00},
	{"Sleeping Bag", "camping", 219.00},
	{"Water Filter", "camping", 44.50},
}

var regions = []string{"North America", "Europe", "Asia Pacific", "Latin America"}

type Generator struct {
	rnd       *rand.Rand
	customers int
	sequence  int64
	days      int
	now       func() time.Time
}

// NewGenerator returns a generator whose output depends only on seed and the
// clock. Order dates fall within the trailing days window.
func NewGenerator(seed int64, customers, days int) *Generator {
	if customers <= 0 {
		customers = 1
	}
	if days <= 0 {
		days = 1
	}
	return &Generator{
		rnd:       rand.New(rand.NewSource(seed)),
		customers: customers,
		days:      days,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) NextOrder() Order {
	g.sequence++
	item := catalogue[g.rnd.Intn(len(catalogue))]
	quantity := g.pickQuantity()
	unitPrice := g.discount(item.price)
	today := g.now().Truncate(24 * time.Hour)

	return Order{
		OrderID:   g.sequence,
		OrderDate: today.AddDate(0, 0, -g.rnd.Intn(g.days)),
		Customer:  fmt.Sprintf("cust-%05d", g.rnd.Intn(g.customers)+1),
		Product:   item.name,
		Category:  item.category,
		Region:    pickOne(g.rnd, regions),
		Channel:   g.pickChannel(),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Revenue:   round2(unitPrice * float64(quantity)),
	}
}

func (g *Generator) pickQuantity() int {
	p := g.rnd.Intn(100)
	switch {
	case p < 60:
		return 1
	case p < 85:
		return 2
	case p < 95:
		return 3 + g.rnd.Intn(3)
	default:
		return 6 + g.rnd.Intn(15)
	}
}

func (g *Generator) pickChannel() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 50:
		return "web"
	case p < 80:
		return "store"
	case p < 95:
		return "mobile"
	default:
		return "partner"
	}
}

// discount applies an occasional promotion of 10 or 25 percent.
func (g *Generator) discount(price float64) float64 {
	switch p := g.rnd.Intn(100); {
	case p < 10:
		return round2(price * 0.75)
	case p < 30:
		return round2(price * 0.9)
	default:
		return price
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}

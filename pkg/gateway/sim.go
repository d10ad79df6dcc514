package gateway

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var simPeriodDays = map[string]int{"5d": 5, "1m": 30, "3m": 90, "6m": 180, "1y": 365}

// SimGateway is an in-process Gateway producing random-walk prices. It stands
// in for the real provider in development and demos.
type SimGateway struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	symbols []string
	last    map[string]decimal.Decimal
	ticks   int
}

func NewSimGateway(seed uint64, symbols []string) *SimGateway {
	return &SimGateway{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:     time.Now,
		symbols: slices.Clone(symbols),
		last:    make(map[string]decimal.Decimal),
	}
}

func (g *SimGateway) Watchlist(ctx context.Context) (*WatchlistResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	date := g.now().Format(time.DateOnly)
	out := &WatchlistResponse{LastUpdated: g.now().Format(time.RFC3339)}
	for _, sym := range g.symbols {
		prev := g.price(sym)
		next := g.step(prev)
		g.last[sym] = next

		change := next.Sub(prev)
		out.Stocks = append(out.Stocks, StockPrice{
			Ticker:        sym,
			Open:          prev,
			Close:         next,
			High:          decimal.Max(prev, next),
			Low:           decimal.Min(prev, next),
			Volume:        decimal.NewFromInt(g.rng.Int64N(1_000_000)),
			Date:          date,
			Change:        change,
			ChangePercent: change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2),
		})
	}
	return out, nil
}

func (g *SimGateway) Detail(ctx context.Context, ticker string) (*StockDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return &StockDetails{
		Ticker:      ticker,
		Name:        ticker + " Holdings",
		MarketCap:   decimal.NewFromInt(g.rng.Int64N(500) + 1).Mul(decimal.NewFromInt(1_000_000_000)),
		Description: "Simulated listing for " + ticker,
		Sector:      "Simulated",
		Employees:   g.rng.Int64N(100_000),
	}, nil
}

func (g *SimGateway) Chart(ctx context.Context, ticker, period string) (*ChartResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	days, ok := simPeriodDays[period]
	if !ok {
		return nil, &StatusError{Code: 400, Body: "unknown period " + period}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := &ChartResponse{Ticker: ticker, Period: period}
	px := g.price(ticker)
	start := g.now().AddDate(0, 0, -days)
	for i := 1; i <= days; i++ {
		next := g.step(px)
		out.Data = append(out.Data, ChartPoint{
			Date:   start.AddDate(0, 0, i).Format(time.DateOnly),
			Open:   px,
			Close:  next,
			High:   decimal.Max(px, next),
			Low:    decimal.Min(px, next),
			Volume: decimal.NewFromInt(g.rng.Int64N(1_000_000)),
		})
		px = next
	}
	return out, nil
}

func (g *SimGateway) Status(ctx context.Context) (SystemStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	phases := []string{"idle", "running", "completed"}
	g.ticks++
	return SystemStatus{
		"dataIngestion": phases[g.ticks%len(phases)],
		"aiAgent":       "idle",
		"voiceService":  "idle",
	}, nil
}

func (g *SimGateway) AddSymbol(ctx context.Context, ticker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.symbols = append(g.symbols, ticker)
	return nil
}

func (g *SimGateway) RemoveSymbol(ctx context.Context, ticker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.symbols = slices.DeleteFunc(g.symbols, func(s string) bool { return s == ticker })
	delete(g.last, ticker)
	return nil
}

// price returns the last simulated price, seeding one in [100, 300).
func (g *SimGateway) price(sym string) decimal.Decimal {
	if p, ok := g.last[sym]; ok {
		return p
	}
	p := decimal.NewFromFloat(100 + g.rng.Float64()*200).Round(2)
	g.last[sym] = p
	return p
}

// step moves a price by up to ±2.5%, never below one cent.
func (g *SimGateway) step(p decimal.Decimal) decimal.Decimal {
	pct := decimal.NewFromFloat((g.rng.Float64() - 0.5) * 0.05)
	next := p.Add(p.Mul(pct)).Round(2)
	if next.LessThan(decimal.NewFromFloat(0.01)) {
		return decimal.NewFromFloat(0.01)
	}
	return next
}

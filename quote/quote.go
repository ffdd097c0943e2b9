// Package quote derives a funding offer from a seller's aggregated sales
// over a trailing lookback window.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/retailrockit/leadbot/bot/contract"
	ledgerx "github.com/retailrockit/leadbot/ledger"
)

// ErrQuote wraps any failure to produce a quote. A zero-sales result is not
// an error; callers tell the two apart by inspecting the returned result.
var ErrQuote = errors.New("quote computation failed")

type Config struct {
	// Multiplier is the portion of trailing sales offered as funding.
	Multiplier float64 `envconfig:"MULTIPLIER" split_words:"true" default:"0.80"`

	// LookbackDays is the trailing window length ending today.
	LookbackDays int `envconfig:"LOOKBACK_DAYS" split_words:"true" default:"365"`

	// ChunkDays splits the window into sequential sub-ranges of at most
	// this many days, each fetched independently.
	ChunkDays int `envconfig:"CHUNK_DAYS" split_words:"true" default:"180"`

	// DemoCredential short-circuits the ledger entirely and returns
	// DemoOffer. Empty disables the bypass.
	DemoCredential string `envconfig:"DEMO_CREDENTIAL" split_words:"true"`
	DemoOffer      int64  `envconfig:"DEMO_OFFER" split_words:"true" default:"50000"`
}

// Calculator computes offers via the ledger client.
type Calculator struct {
	ledger *ledgerx.Client
	cfg    Config
	now    func() time.Time
}

func NewCalculator(ledger *ledgerx.Client, cfg Config) (*Calculator, error) {
	if ledger == nil {
		return nil, errors.New("ledger client is required")
	}
	if cfg.Multiplier <= 0 || cfg.Multiplier > 1 {
		return nil, fmt.Errorf("multiplier must be in (0, 1], got %v", cfg.Multiplier)
	}
	if cfg.LookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", cfg.LookbackDays)
	}
	chunk := cfg.ChunkDays
	if chunk <= 0 || chunk > cfg.LookbackDays {
		chunk = cfg.LookbackDays
	}
	cfg.ChunkDays = chunk
	cfg.DemoCredential = ledgerx.NormalizeCredential(cfg.DemoCredential)

	return &Calculator{
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

var _ contractx.Quoter = (*Calculator)(nil)

// Compute aggregates the seller's sales over the lookback window and derives
// the offer as floor(total * multiplier). The window is fixed at call time;
// any sub-range failure fails the whole computation.
func (c *Calculator) Compute(ctx context.Context, credential string) (contractx.QuoteResult, error) {
	credential = ledgerx.NormalizeCredential(credential)

	if c.cfg.DemoCredential != "" && credential == c.cfg.DemoCredential {
		log.Info().Msg("demo credential matched, bypassing ledger")
		return contractx.QuoteResult{Offer: c.cfg.DemoOffer}, nil
	}

	ranges := c.windows(c.now())

	var total float64
	var records int
	for _, r := range ranges {
		sales, err := c.ledger.FetchSales(ctx, credential, r)
		if err != nil {
			return contractx.QuoteResult{}, fmt.Errorf("%w: range %s..%s: %w",
				ErrQuote, r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly), err)
		}
		for _, sale := range sales {
			if sale.SellingPrice != nil {
				total += *sale.SellingPrice
			}
		}
		records += len(sales)
	}

	result := contractx.QuoteResult{
		Offer:      int64(math.Floor(total * c.cfg.Multiplier)),
		TotalSales: total,
		Records:    records,
	}
	log.Debug().
		Float64("total_sales", result.TotalSales).
		Int64("offer", result.Offer).
		Int("records", result.Records).
		Msg("quote computed")
	return result, nil
}

// windows returns the lookback window ending today, split into sequential
// ChunkDays-sized inclusive sub-ranges, oldest first.
func (c *Calculator) windows(now time.Time) []ledgerx.DateRange {
	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(c.cfg.LookbackDays - 1))

	var ranges []ledgerx.DateRange
	for cur := start; !cur.After(end); {
		chunkEnd := cur.AddDate(0, 0, c.cfg.ChunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		ranges = append(ranges, ledgerx.DateRange{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)
	}
	return ranges
}

package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Processor builds multi-day rate reports by querying a RateProvider once
// per date. Queries for distinct dates are independent and run concurrently;
// the report is always assembled today-first regardless of which query
// finishes when.
type Processor struct {
	provider RateProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewProcessor creates a Processor over the given provider.
func NewProcessor(provider RateProvider, logger *slog.Logger) *Processor {
	return &Processor{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Process fetches rate sheets for today and the previous days-1 calendar
// days and renders one block per date. A day count below 1 is treated as 1.
// A provider failure for one date degrades only that date's block.
func (p *Processor) Process(ctx context.Context, days int, currencies []string) string {
	if days < 1 {
		days = 1
	}
	if len(currencies) == 0 {
		currencies = DefaultCurrencies
	}

	today := p.now()
	blocks := make([]string, days)

	var wg sync.WaitGroup
	for i := 0; i < days; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()

			date := today.AddDate(0, 0, -offset).Format(DateLayout)
			sheet, err := p.provider.Fetch(ctx, date)
			if err != nil {
				p.logger.Warn("rate fetch failed", "date", date, "error", err)
				blocks[offset] = fmt.Sprintf("Failed to fetch data for %s", date)
				return
			}
			blocks[offset] = formatBlock(date, sheet, currencies)
		}(i)
	}
	wg.Wait()

	return strings.Join(blocks, "\n\n")
}

// formatBlock renders one date's rates: a date header followed by one line
// per requested currency.
func formatBlock(date string, sheet *RateSheet, currencies []string) string {
	lines := make([]string, 0, len(currencies)+1)
	lines = append(lines, fmt.Sprintf("Date: %s", date))

	for _, currency := range currencies {
		entry := sheet.Entry(currency)
		if entry == nil {
			lines = append(lines, fmt.Sprintf("%s: No data available", currency))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: Buy - %s, Sell - %s", currency, entry.Purchase, entry.Sale))
	}

	return strings.Join(lines, "\n")
}

// Command rates fetches currency exchange rates for the last N days and
// prints the same report the relay's exchange command produces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ratechat/internal/exchange"
	"ratechat/internal/logger"
)

// maxDays is the hard limit on how far back a single invocation may reach.
const maxDays = 10

func main() {
	days := flag.Int("days", 1, "number of days to fetch rates for (up to 10)")
	currencies := flag.String("currencies", "USD,EUR", "comma-separated currency codes to report")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if *days > maxDays {
		fmt.Fprintf(os.Stderr, "cannot fetch data for more than %d days\n", maxDays)
		os.Exit(1)
	}

	codes := parseCurrencies(*currencies)
	if len(codes) == 0 {
		fmt.Fprintln(os.Stderr, "at least one currency code is required")
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	provider := exchange.NewPrivatBankClient(os.Getenv("EXCHANGE_API_URL"), *timeout)
	processor := exchange.NewProcessor(provider, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(maxDays)*(*timeout))
	defer cancel()

	fmt.Println(processor.Process(ctx, *days, codes))
}

func parseCurrencies(value string) []string {
	parts := strings.Split(value, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

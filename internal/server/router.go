// Package server classifies inbound messages as chat or commands and
// dispatches them via the Router type.
package server

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ratechat/internal/auditlog"
)

// commandPrefix is the literal token that distinguishes a command from chat.
const commandPrefix = "exchange"

// Outcome reports how the router handled a message.
type Outcome int

const (
	// OutcomeBroadcast means the message was relayed to the other peers.
	OutcomeBroadcast Outcome = iota
	// OutcomeCommandReply means the message was a command answered
	// privately to its sender.
	OutcomeCommandReply
)

// Broadcaster is the registry capability the router needs: fan-out delivery
// excluding the sender. Satisfied by *Hub.
type Broadcaster interface {
	Broadcast(payload []byte, sender Conn)
}

// CommandProcessor builds a multi-day rate report. Satisfied by
// *exchange.Processor.
type CommandProcessor interface {
	Process(ctx context.Context, days int, currencies []string) string
}

// Router routes each inbound message either to the broadcaster (chat) or to
// the command processor with a private reply (commands).
type Router struct {
	broadcaster Broadcaster
	processor   CommandProcessor
	audit       auditlog.Log
	maxDays     int
	currencies  []string
	logger      *slog.Logger
}

// NewRouter wires a Router. maxDays is the uniform day-count cap applied to
// every command; values above it are clamped rather than rejected.
func NewRouter(broadcaster Broadcaster, processor CommandProcessor, audit auditlog.Log, maxDays int, currencies []string, logger *slog.Logger) *Router {
	if maxDays < 1 {
		maxDays = 10
	}
	if len(currencies) == 0 {
		currencies = []string{"USD", "EUR"}
	}

	return &Router{
		broadcaster: broadcaster,
		processor:   processor,
		audit:       audit,
		maxDays:     maxDays,
		currencies:  currencies,
		logger:      logger,
	}
}

// Route handles one inbound message from sender. Chat is broadcast verbatim
// to every other peer and never echoed back; a command blocks the sender's
// session until the report is ready, is recorded in the audit log
// fire-and-forget, and is delivered to the sender only.
func (r *Router) Route(ctx context.Context, sender Conn, raw []byte) Outcome {
	text := string(raw)

	args, isCommand := parseCommand(text)
	if !isCommand {
		r.broadcaster.Broadcast(raw, sender)
		return OutcomeBroadcast
	}

	days := r.dayCount(args)
	report := r.processor.Process(ctx, days, r.currencies)

	go r.appendAudit(text)

	if !sender.Deliver([]byte(report)) {
		r.logger.Warn("failed to deliver command reply", "client", sender.ID())
	}
	return OutcomeCommandReply
}

// parseCommand reports whether the trimmed text is the exchange command and
// returns its positional arguments. The prefix must be the whole first
// token: "exchanges" is chat.
func parseCommand(text string) ([]string, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || fields[0] != commandPrefix {
		return nil, false
	}
	return fields[1:], true
}

// dayCount extracts the requested day count from the command arguments. A
// missing or non-numeric argument falls back to 1, values below 1 are
// raised to 1, and values above the cap are clamped.
func (r *Router) dayCount(args []string) int {
	days := 1
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil {
			days = parsed
		}
	}

	if days < 1 {
		days = 1
	}
	if days > r.maxDays {
		days = r.maxDays
	}
	return days
}

// appendAudit records the raw command text. A log failure never affects the
// reply already sent to the client.
func (r *Router) appendAudit(command string) {
	if err := r.audit.Append(time.Now(), command); err != nil {
		r.logger.Warn("audit log append failed", "error", err)
	}
}

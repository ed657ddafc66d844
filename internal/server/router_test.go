package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

type broadcastCall struct {
	payload  string
	senderID string
}

func (m *mockBroadcaster) Broadcast(payload []byte, sender Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ""
	if sender != nil {
		id = sender.ID()
	}
	m.calls = append(m.calls, broadcastCall{payload: string(payload), senderID: id})
}

func (m *mockBroadcaster) broadcasts() []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcastCall(nil), m.calls...)
}

type stubProcessor struct {
	mu       sync.Mutex
	daysSeen []int
}

func (p *stubProcessor) Process(_ context.Context, days int, _ []string) string {
	p.mu.Lock()
	p.daysSeen = append(p.daysSeen, days)
	p.mu.Unlock()
	return fmt.Sprintf("report for %d days", days)
}

func (p *stubProcessor) lastDays(t *testing.T) int {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.daysSeen)
	return p.daysSeen[len(p.daysSeen)-1]
}

type recordingAudit struct {
	entries chan string
	fail    bool
}

func newRecordingAudit() *recordingAudit {
	return &recordingAudit{entries: make(chan string, 16)}
}

func (a *recordingAudit) Append(_ time.Time, command string) error {
	if a.fail {
		return errors.New("audit sink down")
	}
	a.entries <- command
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func (a *recordingAudit) waitForEntry(t *testing.T) string {
	t.Helper()
	select {
	case entry := <-a.entries:
		return entry
	case <-time.After(time.Second):
		t.Fatal("no audit entry recorded")
		return ""
	}
}

func newTestRouter(broadcaster Broadcaster, processor CommandProcessor, audit *recordingAudit) *Router {
	return NewRouter(broadcaster, processor, audit, 10, []string{"USD", "EUR"}, discardLogger())
}

func TestRouteChatBroadcastsVerbatim(t *testing.T) {
	broadcaster := &mockBroadcaster{}
	audit := newRecordingAudit()
	router := newTestRouter(broadcaster, &stubProcessor{}, audit)
	sender := &mockConn{id: "a"}

	outcome := router.Route(context.Background(), sender, []byte("hello everyone"))

	assert.Equal(t, OutcomeBroadcast, outcome)
	require.Len(t, broadcaster.broadcasts(), 1)
	assert.Equal(t, broadcastCall{payload: "hello everyone", senderID: "a"}, broadcaster.broadcasts()[0])
	assert.Empty(t, sender.messages(), "chat must not be echoed to the sender")
}

func TestRouteCommandRepliesToSenderOnly(t *testing.T) {
	broadcaster := &mockBroadcaster{}
	processor := &stubProcessor{}
	audit := newRecordingAudit()
	router := newTestRouter(broadcaster, processor, audit)
	sender := &mockConn{id: "a"}

	outcome := router.Route(context.Background(), sender, []byte("exchange 3"))

	assert.Equal(t, OutcomeCommandReply, outcome)
	assert.Empty(t, broadcaster.broadcasts(), "commands are never broadcast")
	assert.Equal(t, []string{"report for 3 days"}, sender.messages())
	assert.Equal(t, 3, processor.lastDays(t))
	assert.Equal(t, "exchange 3", audit.waitForEntry(t))
}

func TestRouteCommandDayCountParsing(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantDays int
	}{
		{"no argument defaults to one", "exchange", 1},
		{"explicit one matches default", "exchange 1", 1},
		{"numeric argument", "exchange 5", 5},
		{"non-numeric argument falls back", "exchange tomorrow", 1},
		{"zero raised to one", "exchange 0", 1},
		{"negative raised to one", "exchange -4", 1},
		{"above cap is clamped", "exchange 500", 10},
		{"surrounding whitespace ignored", "  exchange 2  ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &stubProcessor{}
			router := newTestRouter(&mockBroadcaster{}, processor, newRecordingAudit())
			sender := &mockConn{id: "a"}

			outcome := router.Route(context.Background(), sender, []byte(tt.message))

			assert.Equal(t, OutcomeCommandReply, outcome)
			assert.Equal(t, tt.wantDays, processor.lastDays(t))
		})
	}
}

func TestRoutePrefixMustBeWholeToken(t *testing.T) {
	broadcaster := &mockBroadcaster{}
	router := newTestRouter(broadcaster, &stubProcessor{}, newRecordingAudit())
	sender := &mockConn{id: "a"}

	outcome := router.Route(context.Background(), sender, []byte("exchanges are fun"))

	assert.Equal(t, OutcomeBroadcast, outcome)
	require.Len(t, broadcaster.broadcasts(), 1)
	assert.Empty(t, sender.messages())
}

func TestRouteAuditFailureDoesNotAffectReply(t *testing.T) {
	audit := newRecordingAudit()
	audit.fail = true
	router := newTestRouter(&mockBroadcaster{}, &stubProcessor{}, audit)
	sender := &mockConn{id: "a"}

	outcome := router.Route(context.Background(), sender, []byte("exchange 2"))

	assert.Equal(t, OutcomeCommandReply, outcome)
	assert.Equal(t, []string{"report for 2 days"}, sender.messages())
}

func TestRouteCommandToClosedSenderDoesNotPanic(t *testing.T) {
	router := newTestRouter(&mockBroadcaster{}, &stubProcessor{}, newRecordingAudit())
	sender := &mockConn{id: "a"}
	require.NoError(t, sender.Close())

	outcome := router.Route(context.Background(), sender, []byte("exchange"))

	assert.Equal(t, OutcomeCommandReply, outcome)
	assert.Empty(t, sender.messages())
}

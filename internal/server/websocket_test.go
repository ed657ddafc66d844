package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratechat/internal/auditlog"
	"ratechat/internal/exchange"
)

// fixedRateProvider answers every date with the same USD/EUR sheet.
type fixedRateProvider struct{}

func (fixedRateProvider) Fetch(_ context.Context, date string) (*exchange.RateSheet, error) {
	return &exchange.RateSheet{
		Date: date,
		Entries: []exchange.RateEntry{
			{
				Currency: "USD",
				Purchase: decimal.RequireFromString("37.1"),
				Sale:     decimal.RequireFromString("37.9"),
			},
			{
				Currency: "EUR",
				Purchase: decimal.RequireFromString("40.25"),
				Sale:     decimal.RequireFromString("41.3"),
			},
		},
	}, nil
}

func startRelay(t *testing.T) (*Hub, string) {
	t.Helper()

	log := discardLogger()
	cfg := NewConfig()
	cfg.AllowedOrigins = []string{"*"}

	hub := NewHub(log)
	processor := exchange.NewProcessor(fixedRateProvider{}, log)
	router := NewRouter(hub, processor, auditlog.NopLog{}, 10, []string{"USD", "EUR"}, log)

	ts := httptest.NewServer(SetupRoutes(hub, router, cfg, log))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = hub.Shutdown(time.Second) })

	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialPeer(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	header := http.Header{"Origin": {"http://peer.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Len() == want },
		2*time.Second, 10*time.Millisecond, "expected %d registered clients", want)
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(payload)
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, payload, err := conn.ReadMessage()
	require.Error(t, err, "expected no message, got %q", payload)
}

func TestRelayBroadcastReachesOtherPeersOnly(t *testing.T) {
	hub, wsURL := startRelay(t)

	peerA := dialPeer(t, wsURL)
	peerB := dialPeer(t, wsURL)
	peerC := dialPeer(t, wsURL)
	waitForClients(t, hub, 3)

	require.NoError(t, peerA.WriteMessage(websocket.TextMessage, []byte("hello")))

	assert.Equal(t, "hello", readText(t, peerB))
	assert.Equal(t, "hello", readText(t, peerC))
	assertNoMessage(t, peerA)
}

func TestRelayExchangeCommandRepliesPrivately(t *testing.T) {
	hub, wsURL := startRelay(t)

	peer1 := dialPeer(t, wsURL)
	peer2 := dialPeer(t, wsURL)
	waitForClients(t, hub, 2)

	require.NoError(t, peer1.WriteMessage(websocket.TextMessage, []byte("exchange 2")))

	report := readText(t, peer1)
	blocks := strings.Split(report, "\n\n")
	require.Len(t, blocks, 2)

	today := time.Now().Format(exchange.DateLayout)
	yesterday := time.Now().AddDate(0, 0, -1).Format(exchange.DateLayout)
	assert.True(t, strings.HasPrefix(blocks[0], fmt.Sprintf("Date: %s", today)))
	assert.True(t, strings.HasPrefix(blocks[1], fmt.Sprintf("Date: %s", yesterday)))
	assert.Contains(t, blocks[0], "USD: Buy - 37.1, Sell - 37.9")
	assert.Contains(t, blocks[0], "EUR: Buy - 40.25, Sell - 41.3")

	assertNoMessage(t, peer2)
}

func TestRelayExchangeWithoutArgumentMatchesSingleDay(t *testing.T) {
	hub, wsURL := startRelay(t)

	peer := dialPeer(t, wsURL)
	waitForClients(t, hub, 1)

	require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte("exchange")))
	bare := readText(t, peer)

	require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte("exchange 1")))
	explicit := readText(t, peer)

	assert.Equal(t, explicit, bare)
	assert.Len(t, strings.Split(bare, "\n\n"), 1)
}

func TestRelayPeerDisconnectDoesNotBreakBroadcast(t *testing.T) {
	hub, wsURL := startRelay(t)

	peerA := dialPeer(t, wsURL)
	peerB := dialPeer(t, wsURL)
	peerC := dialPeer(t, wsURL)
	waitForClients(t, hub, 3)

	require.NoError(t, peerB.Close())
	waitForClients(t, hub, 2)

	require.NoError(t, peerA.WriteMessage(websocket.TextMessage, []byte("still here?")))
	assert.Equal(t, "still here?", readText(t, peerC))
}

func TestRelayRejectsNonGetRequests(t *testing.T) {
	_, wsURL := startRelay(t)
	httpURL := "http" + strings.TrimPrefix(wsURL, "ws")

	resp, err := http.Post(httpURL, "text/plain", strings.NewReader("nope"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

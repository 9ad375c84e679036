package broker

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

func testCounterValue(t *testing.T) float64 {
	t.Helper()
	return testutil.ToFloat64(metrics.NetAcked)
}

func newTestBroker(t *testing.T, auth AuthPolicy, rate, burst float64) (*Broker, *httptest.Server) {
	t.Helper()
	b := New(auth, rate, burst, func() int { return 0 }, logger.New(os.Stdout, logger.ErrorLevel))
	b.Start()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(func() {
		b.Stop()
		srv.Close()
	})
	return b, srv
}

func dial(t *testing.T, srv *httptest.Server, header map[string][]string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	return conn
}

func TestBrokerBroadcastsKUFrame(t *testing.T) {
	b, srv := newTestBroker(t, AuthPolicy{}, 10, 20)
	conn := dial(t, srv, nil)
	defer conn.Close()

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.NotifyKU("cid-123", nil)

	var frame KUFrame
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, FrameKU, frame.Type)
	require.Equal(t, "cid-123", frame.CID)
}

func TestBrokerRejectsBadBearer(t *testing.T) {
	_, srv := newTestBroker(t, AuthPolicy{BearerToken: "secret"}, 10, 20)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 403, resp.StatusCode)
}

func TestBrokerAcceptsGoodBearer(t *testing.T) {
	b, srv := newTestBroker(t, AuthPolicy{BearerToken: "secret"}, 10, 20)
	conn := dial(t, srv, map[string][]string{"Authorization": {"Bearer secret"}})
	defer conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBrokerAckIncrementsMetric(t *testing.T) {
	b, srv := newTestBroker(t, AuthPolicy{}, 10, 20)
	conn := dial(t, srv, nil)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	before := testCounterValue(t)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ack", "cid": "cid-1"}))
	require.Eventually(t, func() bool { return testCounterValue(t) > before }, time.Second, 5*time.Millisecond)
}

func TestBrokerSuppressesDuplicateCIDPerSubscriber(t *testing.T) {
	b, srv := newTestBroker(t, AuthPolicy{}, 10, 20)
	conn := dial(t, srv, nil)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.NotifyKU("cid-dup", nil)
	b.NotifyKU("cid-dup", nil) // at-least-once redelivery: suppressed
	b.NotifyKU("cid-next", nil)

	var kus []string
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(kus) < 2 {
		var frame KUFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == FrameKU {
			kus = append(kus, frame.CID)
		}
	}
	require.Equal(t, []string{"cid-dup", "cid-next"}, kus)
}

func TestBrokerDropsOnBackpressure(t *testing.T) {
	b, srv := newTestBroker(t, AuthPolicy{}, 1, 1)
	conn := dial(t, srv, nil)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	dropsBefore := testutil.ToFloat64(metrics.EventsDrop.WithLabelValues("backpressure"))
	b.NotifyKU("cid-1", nil)
	b.NotifyKU("cid-2", nil) // burst of 1: second frame is dropped
	require.Equal(t, dropsBefore+1, testutil.ToFloat64(metrics.EventsDrop.WithLabelValues("backpressure")))

	var frame KUFrame
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "cid-1", frame.CID)
}

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func receive(t *testing.T, records <-chan *paceman.Record) *paceman.Record {
	t.Helper()
	select {
	case rec, ok := <-records:
		require.True(t, ok, "stream closed early")
		return rec
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for record")
		return nil
	}
}

func TestRecordsReconnectsAndSkipsMalformed(t *testing.T) {
	var connections atomic.Int32
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(KeyHeader) != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := connections.Add(1)
		if n == 1 {
			conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{"nickname": "Steve", "eventList": [{"eventId": "rsg.enter_nether", "igt": 1000, "rta": 1000}]}`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{"nickname": "Alex", "eventList": []}`))
			// Drop the connection to force a reconnect
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"nickname": "Notch", "eventList": []}`))
		// Hold the connection open until the client goes away
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewClient(wsURL(server), "secret", 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := client.Records(ctx)

	first := receive(t, records)
	assert.Equal(t, "Steve", first.RunnerDisplayName)
	assert.Equal(t, paceman.MilestoneEnterNether, first.CompletedMilestones[0].Kind)
	assert.Equal(t, "Alex", receive(t, records).RunnerDisplayName)
	assert.Equal(t, "Notch", receive(t, records).RunnerDisplayName)
	assert.GreaterOrEqual(t, connections.Load(), int32(2))

	client.Close()
	select {
	case _, ok := <-records:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed after Close")
	}
}

func TestRecordsRetriesRejectedHandshake(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(wsURL(server), "wrong", 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	records := client.Records(ctx)

	require.Eventually(t, func() bool { return attempts.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case _, ok := <-records:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestRecordsReconnectsStalledConnection(t *testing.T) {
	var connections atomic.Int32
	upgrader := websocket.Upgrader{}
	hold := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if connections.Add(1) == 1 {
			// Never read, so pings go unanswered and nothing is sent
			<-hold
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"nickname": "Steve", "eventList": []}`))
		conn.ReadMessage()
	}))
	defer server.Close()
	defer close(hold)

	client := NewClient(wsURL(server), "secret", 10*time.Millisecond)
	client.readTimeout = 100 * time.Millisecond
	client.pingInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := client.Records(ctx)

	assert.Equal(t, "Steve", receive(t, records).RunnerDisplayName)
	assert.Equal(t, int32(2), connections.Load())

	client.Close()
}

func TestPongsKeepQuietConnectionOpen(t *testing.T) {
	var connections atomic.Int32
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		connections.Add(1)

		// Reading lets the default ping handler answer with pongs
		go func() {
			time.Sleep(300 * time.Millisecond)
			conn.WriteMessage(websocket.TextMessage, []byte(`{"nickname": "Alex", "eventList": []}`))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewClient(wsURL(server), "secret", 10*time.Millisecond)
	client.readTimeout = 100 * time.Millisecond
	client.pingInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := client.Records(ctx)

	assert.Equal(t, "Alex", receive(t, records).RunnerDisplayName)
	assert.Equal(t, int32(1), connections.Load())

	client.Close()
}

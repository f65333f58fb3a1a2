package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

// KeyHeader carries the feed access key on the upgrade request
const KeyHeader = "X-PaceMan-Key"

// Defaults for detecting a stalled connection
const (
	defaultReadTimeout  = 60 * time.Second
	defaultPingInterval = 25 * time.Second
)

// ErrTransport wraps connection and read failures on the feed
var ErrTransport = errors.New("feed transport failure")

// Client streams progress records from the PaceMan push feed, reconnecting forever
type Client struct {
	url   string
	key   string
	retry time.Duration

	// readTimeout bounds the silence between frames (messages or pongs)
	readTimeout  time.Duration
	pingInterval time.Duration

	dialer *websocket.Dialer

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewClient creates a feed client that waits retry between connection attempts
func NewClient(url, key string, retry time.Duration) *Client {
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &Client{
		url:   url,
		key:   key,
		retry: retry,

		readTimeout:  defaultReadTimeout,
		pingInterval: defaultPingInterval,

		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		stopChan: make(chan struct{}),
	}
}

// Records connects to the feed and delivers decoded records in arrival order. The
// channel is unbuffered and is closed only when ctx is cancelled or Close is called.
func (c *Client) Records(ctx context.Context) <-chan *paceman.Record {
	out := make(chan *paceman.Record)

	go func() {
		defer close(out)

		for {
			err := c.consume(ctx, out)
			if c.stopped(ctx) {
				slog.Info("Feed client stopped")
				return
			}

			slog.Error("Feed connection lost, retrying", "error", err, "retry", c.retry)

			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-time.After(c.retry):
			}
		}
	}()

	return out
}

// Close disconnects the feed and ends the record stream
func (c *Client) Close() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Client) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-c.stopChan:
		return true
	default:
		return false
	}
}

// consume runs one connect/read cycle until the connection fails or the client stops
func (c *Client) consume(ctx context.Context, out chan<- *paceman.Record) error {
	session := uuid.NewString()

	header := http.Header{}
	header.Set(KeyHeader, c.key)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: dial failed with status %d: %v", ErrTransport, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: dial failed: %v", ErrTransport, err)
	}
	defer conn.Close()

	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	conn.SetPongHandler(func(string) error { return extend() })

	// Ping to keep the peer answering, and unblock ReadMessage on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(c.pingInterval)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					slog.Debug("Feed ping failed", "session", session, "error", err)
				}
			case <-ctx.Done():
				conn.Close()
				return
			case <-c.stopChan:
				conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	slog.Info("Connected to feed", "session", session)

	for {
		// Time spent delivering a record does not count as silence
		if err := extend(); err != nil {
			return fmt.Errorf("%w: session %s: %v", ErrTransport, session, err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: session %s: %v", ErrTransport, session, err)
		}

		rec, err := paceman.Decode(data)
		if err != nil {
			slog.Warn("Dropping malformed record", "session", session, "error", err)
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopChan:
			return nil
		}
	}
}

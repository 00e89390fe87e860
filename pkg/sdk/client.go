// Package sdk provides the client-side library for the gestao store.
// It supports remote connections via TCP/TLS and a local embedded mode.
package sdk

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

const maxAttempts = 3

var _ engine.Store = (*Client)(nil)

// Client is a remote client for the store daemon. It implements engine.Store.
type Client struct {
	addr   string
	useTLS bool
	log    *slog.Logger

	mu     sync.Mutex // Protects concurrent access to the connection
	conn   net.Conn
	reader *bufio.Reader
}

// Option configures a Client.
type Option func(*Client)

// WithTLS overrides the CELERIX_DISABLE_TLS environment switch.
func WithTLS(enabled bool) Option {
	return func(c *Client) { c.useTLS = enabled }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Connect establishes a TLS-encrypted connection to a remote store daemon.
// If CELERIX_DISABLE_TLS is set to "true", it falls back to plain TCP.
func Connect(addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:   addr,
		useTLS: os.Getenv("CELERIX_DISABLE_TLS") != "true",
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(slog.String("component", "sdk_client"), slog.String("addr", addr))
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	var conn net.Conn
	var err error
	if c.useTLS {
		config := &tls.Config{
			InsecureSkipVerify: true, // the daemon uses a self-signed certificate
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	} else {
		conn, err = dialer.Dial("tcp", c.addr)
	}
	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// roundTrip sends one command line and returns the payload after "OK".
func (c *Client) roundTrip(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < maxAttempts; i++ {
		if c.conn == nil {
			if rerr := c.reconnect(); rerr != nil {
				err = fmt.Errorf("reconnect failed: %w", rerr)
				time.Sleep(time.Duration((i+1)*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		var resp string
		if _, err = fmt.Fprint(c.conn, cmd+"\n"); err == nil {
			if resp, err = c.reader.ReadString('\n'); err == nil {
				return parseResponse(strings.TrimRight(resp, "\r\n"))
			}
		}

		c.log.Warn("request failed, reconnecting", slog.Int("attempt", i+1), slog.Any("error", err))
		if rerr := c.reconnect(); rerr != nil {
			c.log.Warn("reconnect failed", slog.Any("error", rerr))
		}
		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

func parseResponse(resp string) (string, error) {
	switch {
	case resp == "OK" || resp == "PONG":
		return "", nil
	case strings.HasPrefix(resp, "OK "):
		return strings.TrimPrefix(resp, "OK "), nil
	case strings.HasPrefix(resp, "ERR"):
		return "", remoteError(strings.TrimSpace(strings.TrimPrefix(resp, "ERR")))
	}
	return "", fmt.Errorf("unexpected response %q", resp)
}

// remoteError maps daemon messages back to the engine sentinels so callers
// can use errors.Is regardless of the transport.
func remoteError(msg string) error {
	for _, sentinel := range []error{
		engine.ErrKeyNotFound,
		engine.ErrAreaNotFound,
		engine.ErrInvalidValue,
		engine.ErrInvalidKey,
	} {
		if msg == sentinel.Error() {
			return sentinel
		}
	}
	return errors.New(msg)
}

func (c *Client) GetItem(area, key string) (string, error) {
	return c.roundTrip(fmt.Sprintf("GET %s %s", area, key))
}

func (c *Client) SetItem(area, key, value string) error {
	if !engine.ValidName(area) || !engine.ValidName(key) {
		return engine.ErrInvalidKey
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(value)); err != nil {
		return engine.ErrInvalidValue
	}
	_, err := c.roundTrip(fmt.Sprintf("SET %s %s %s", area, key, buf.String()))
	return err
}

func (c *Client) RemoveItem(area, key string) error {
	_, err := c.roundTrip(fmt.Sprintf("DEL %s %s", area, key))
	return err
}

func (c *Client) Keys(area string) ([]string, error) {
	var list []string
	err := c.decode(fmt.Sprintf("KEYS %s", area), &list)
	return list, err
}

func (c *Client) Clear(area string) error {
	_, err := c.roundTrip(fmt.Sprintf("CLEAR %s", area))
	return err
}

func (c *Client) Areas() ([]string, error) {
	var list []string
	err := c.decode("AREAS", &list)
	return list, err
}

func (c *Client) Dump(area string) (map[string]string, error) {
	var data map[string]string
	err := c.decode(fmt.Sprintf("DUMP %s", area), &data)
	return data, err
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	_, err := c.roundTrip("PING")
	return err
}

func (c *Client) decode(cmd string, out any) error {
	payload, err := c.roundTrip(cmd)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}

// Close says goodbye to the daemon and drops the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Area returns a scope pinned to one area.
func (c *Client) Area(area string) engine.AreaScope {
	return &remoteAreaScope{client: c, area: area}
}

type remoteAreaScope struct {
	client *Client
	area   string
}

func (a *remoteAreaScope) Name() string                       { return a.area }
func (a *remoteAreaScope) GetItem(key string) (string, error) { return a.client.GetItem(a.area, key) }
func (a *remoteAreaScope) SetItem(key, value string) error {
	return a.client.SetItem(a.area, key, value)
}
func (a *remoteAreaScope) RemoveItem(key string) error { return a.client.RemoveItem(a.area, key) }
func (a *remoteAreaScope) Keys() ([]string, error)     { return a.client.Keys(a.area) }
func (a *remoteAreaScope) Clear() error                { return a.client.Clear(a.area) }

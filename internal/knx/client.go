package knx

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"
)

// Default timeouts and intervals for knxd communication.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultWriteTimeout      = 5 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute

	// readBufferSize bounds a single knxd message; group telegrams are
	// far smaller than this.
	readBufferSize = 256
)

// Config holds knxd connection configuration.
type Config struct {
	// Connection is the knxd connection URL:
	// "unix:///run/knxd" or "tcp://localhost:6720".
	Connection string

	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	ReconnectInterval time.Duration
}

// Logger is the minimal logging interface the client needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Connector is the bus interface consumed by the device runtime.
// It exists so devices can be tested against a fake bus.
type Connector interface {
	// Send transmits a group write telegram carrying data to ga.
	Send(ctx context.Context, ga GroupAddress, data []byte) error

	// SetOnTelegram registers the callback invoked for every received
	// group telegram. Callbacks run sequentially on the receive
	// goroutine, preserving bus ordering.
	SetOnTelegram(callback func(Telegram))

	IsConnected() bool
	Close() error
}

var _ Connector = (*Client)(nil)

// Client is a connection to the knxd daemon.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The telegram callback is invoked from a single goroutine.
//
// When the connection is lost the client reconnects automatically with
// exponential backoff until Close is called.
type Client struct {
	cfg Config

	connMu    sync.RWMutex
	conn      net.Conn
	connected bool

	callbackMu sync.RWMutex
	onTelegram func(Telegram)

	logger Logger

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Connect establishes a connection to knxd and opens group communication.
//
// A receive goroutine is started that parses incoming group packets and
// invokes the registered telegram callback.
func Connect(ctx context.Context, cfg Config, logger Logger) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.connected = true

	c.wg.Add(1)
	go c.receiveLoop()

	return c, nil
}

// dial opens the socket and performs the EIB_OPEN_GROUPCON handshake.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	network, address, err := parseConnectionURL(c.cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %w", ErrConnectionFailed, err)
	}

	if err := openGroupCon(conn, c.cfg.ReadTimeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake failed: %w", ErrConnectionFailed, err)
	}

	return conn, nil
}

// parseConnectionURL parses a knxd connection URL into network and address.
func parseConnectionURL(connURL string) (network, address string, err error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "unix":
		return "unix", u.Path, nil
	case "tcp":
		host := u.Host
		if host == "" {
			host = "localhost:6720"
		}
		return "tcp", host, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q (use unix or tcp)", u.Scheme)
	}
}

// openGroupCon performs the EIB_OPEN_GROUPCON handshake on conn.
// write_only=0x00 opens the socket for bidirectional group traffic.
func openGroupCon(conn net.Conn, readTimeout time.Duration) error {
	msg := EncodeMessage(EIBOpenGroupCon, []byte{0x00, 0x00, 0x00})

	if err := conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	sizeBytes := make([]byte, 2)
	if _, err := io.ReadFull(conn, sizeBytes); err != nil {
		return fmt.Errorf("read response size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(sizeBytes)
	if msgSize < 2 {
		return fmt.Errorf("invalid response size: %d", msgSize)
	}

	resp := make([]byte, 2+int(msgSize))
	copy(resp[:2], sizeBytes)
	if _, err := io.ReadFull(conn, resp[2:]); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	msgType, _, err := ParseMessage(resp)
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if msgType != EIBOpenGroupCon {
		return fmt.Errorf("unexpected response type: 0x%04X", msgType)
	}

	return nil
}

// Send transmits a group write telegram carrying data to ga.
func (c *Client) Send(ctx context.Context, ga GroupAddress, data []byte) error {
	c.connMu.RLock()
	conn := c.conn
	connected := c.connected
	c.connMu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	telegram := NewWriteTelegram(ga, data)
	msg := EncodeMessage(EIBGroupPacket, telegram.EncodePayload())

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	if _, err := conn.Write(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if c.logger != nil {
		c.logger.Debug("telegram sent", "telegram", telegram.String())
	}
	return nil
}

// SetOnTelegram registers the callback invoked for received telegrams.
func (c *Client) SetOnTelegram(callback func(Telegram)) {
	c.callbackMu.Lock()
	c.onTelegram = callback
	c.callbackMu.Unlock()
}

// IsConnected reports whether the client currently has a live connection.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Close shuts the client down and stops the receive loop.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// receiveLoop reads knxd messages and dispatches group telegrams.
// On connection loss it reconnects with exponential backoff.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufferSize)

	for {
		if c.isClosed() {
			return
		}

		msgType, payload, err := c.readMessage(buf)
		if err != nil {
			if c.isClosed() {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		if msgType == EIBGroupPacket && len(payload) >= groupHeaderSize {
			c.handleGroupPacket(payload)
		}
	}
}

// readMessage reads one framed knxd message from the connection.
// A nil error with a zero msgType means a recoverable parse failure.
func (c *Client) readMessage(buf []byte) (uint16, []byte, error) {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return 0, nil, ErrNotConnected
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return 0, nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Idle bus; keep waiting.
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("read size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(buf[:2])
	if msgSize < 2 {
		return 0, nil, fmt.Errorf("%w: message size %d", ErrProtocolDesync, msgSize)
	}

	totalLen := 2 + int(msgSize)
	if totalLen > len(buf) {
		// Cannot skip an unknown number of bytes safely; force reconnect.
		return 0, nil, fmt.Errorf("%w: message size %d exceeds buffer", ErrProtocolDesync, msgSize)
	}

	if _, err := io.ReadFull(conn, buf[2:totalLen]); err != nil {
		return 0, nil, fmt.Errorf("read message: %w", err)
	}

	msgType, payload, err := ParseMessage(buf[:totalLen])
	if err != nil {
		c.logError("parse message failed", err)
		return 0, nil, nil
	}

	return msgType, payload, nil
}

// handleGroupPacket parses and dispatches one received group telegram.
func (c *Client) handleGroupPacket(payload []byte) {
	telegram, err := ParseTelegram(payload)
	if err != nil {
		c.logError("parse telegram failed", err)
		return
	}

	c.callbackMu.RLock()
	callback := c.onTelegram
	c.callbackMu.RUnlock()

	if callback == nil {
		return
	}

	// A panicking handler must not kill the receive loop.
	defer func() {
		if r := recover(); r != nil {
			c.logError("telegram callback panic", fmt.Errorf("%v", r))
		}
	}()
	callback(telegram)
}

// reconnect re-establishes the knxd connection with exponential backoff.
// Returns false if the client was closed while reconnecting.
func (c *Client) reconnect() bool {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.connMu.Unlock()

	interval := c.cfg.ReconnectInterval

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(interval):
		}

		conn, err := c.dial(context.Background())
		if err != nil {
			c.logError("reconnect failed", err)
			interval *= 2
			if interval > maxReconnectInterval {
				interval = maxReconnectInterval
			}
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connected = true
		c.connMu.Unlock()

		if c.logger != nil {
			c.logger.Info("reconnected to knxd")
		}
		return true
	}
}

func (c *Client) logError(msg string, err error) {
	if c.logger != nil {
		c.logger.Error(msg, "error", err)
	}
}

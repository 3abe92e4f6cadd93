package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RedisConfig holds the connection parameters for the Redis-backed store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const (
	defaultRedisTimeout = 5 * time.Second
	redisKeyPrefix      = "soiree:"
)

// RedisClient speaks just enough RESP to back the Store interface: AUTH,
// SELECT, GET, SET PX, DEL, INCR, PEXPIRE and PTTL. Verification codes and
// rate-limit counters are small and low-volume, so a single connection behind
// a mutex is plenty and keeps a whole client SDK out of the dependency tree.
type RedisClient struct {
	cfg RedisConfig

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// NewRedisClient dials eagerly so a bad address or password fails at startup
// instead of on the first guest verification.
func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	c := &RedisClient{cfg: cfg}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Close tears down the connection.
func (c *RedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.rd = nil
	return err
}

// Get returns the value for key, with found=false for missing keys.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := c.command(ctx, "GET", c.namespaced(key))
	if err != nil {
		return nil, false, err
	}
	switch v := reply.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return v, true, nil
	default:
		return nil, false, fmt.Errorf("redis: GET returned %T", v)
	}
}

// Set stores value under key with a millisecond expiry.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	reply, err := c.command(ctx, "SET", c.namespaced(key), string(value), "PX", millisArg(ttl))
	if err != nil {
		return err
	}
	if s, ok := reply.(string); !ok || !strings.EqualFold(s, "OK") {
		return fmt.Errorf("redis: SET returned %v", reply)
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]string, 0, len(keys)+1)
	args = append(args, "DEL")
	for _, key := range keys {
		args = append(args, c.namespaced(key))
	}
	_, err := c.command(ctx, args...)
	return err
}

// IncrementWithTTL bumps the counter at key, arming the expiry window on the
// first increment, and reports the count plus the window's remaining life.
func (c *RedisClient) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := c.namespaced(key)

	count, err := c.commandInt(ctx, "INCR", k)
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if _, err := c.commandInt(ctx, "PEXPIRE", k, millisArg(window)); err != nil {
			return 0, 0, err
		}
	}

	remaining, err := c.commandInt(ctx, "PTTL", k)
	if err != nil || remaining < 0 {
		return count, window, nil
	}
	return count, time.Duration(remaining) * time.Millisecond, nil
}

func (c *RedisClient) namespaced(key string) string {
	key = collapseColons(key)
	if strings.HasPrefix(key, redisKeyPrefix) {
		return key
	}
	return collapseColons(redisKeyPrefix + key)
}

func (c *RedisClient) commandInt(ctx context.Context, args ...string) (int64, error) {
	reply, err := c.command(ctx, args...)
	if err != nil {
		return 0, err
	}
	switch v := reply.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("redis: %s returned %T", args[0], v)
	}
}

func (c *RedisClient) command(ctx context.Context, args ...string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}

	if err := c.conn.SetDeadline(callDeadline(ctx, c.cfg.Timeout)); err != nil {
		c.dropLocked()
		return nil, err
	}
	if err := sendCommand(c.conn, args); err != nil {
		c.dropLocked()
		return nil, err
	}
	reply, err := readReply(c.rd)
	if err != nil {
		c.dropLocked()
		return nil, err
	}
	return reply, nil
}

func (c *RedisClient) connectLocked(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		conn net.Conn
		err  error
	)
	if c.cfg.TLS {
		conn, err = (&tls.Dialer{NetDialer: &net.Dialer{}}).DialContext(dialCtx, "tcp", c.cfg.Address)
	} else {
		conn, err = (&net.Dialer{}).DialContext(dialCtx, "tcp", c.cfg.Address)
	}
	if err != nil {
		return err
	}

	rd := bufio.NewReader(conn)
	if err := conn.SetDeadline(callDeadline(dialCtx, c.cfg.Timeout)); err != nil {
		conn.Close()
		return err
	}

	handshake := func(args ...string) error {
		if err := sendCommand(conn, args); err != nil {
			return err
		}
		reply, err := readReply(rd)
		if err != nil {
			return err
		}
		if s, ok := reply.(string); !ok || !strings.EqualFold(s, "OK") {
			return fmt.Errorf("redis: %s failed: %v", args[0], reply)
		}
		return nil
	}

	if c.cfg.Password != "" || c.cfg.Username != "" {
		args := []string{"AUTH"}
		if c.cfg.Username != "" {
			args = append(args, c.cfg.Username)
		}
		args = append(args, c.cfg.Password)
		if err := handshake(args...); err != nil {
			conn.Close()
			return err
		}
	}
	if c.cfg.DB > 0 {
		if err := handshake("SELECT", strconv.Itoa(c.cfg.DB)); err != nil {
			conn.Close()
			return err
		}
	}

	// Per-call deadlines take over from here.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.rd = rd
	return nil
}

func (c *RedisClient) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.rd = nil
}

func callDeadline(ctx context.Context, fallback time.Duration) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Now().Add(fallback)
}

func sendCommand(w io.Writer, args []string) error {
	var b strings.Builder
	b.WriteByte('*')
	b.WriteString(strconv.Itoa(len(args)))
	b.WriteString("\r\n")
	for _, arg := range args {
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(arg)))
		b.WriteString("\r\n")
		b.WriteString(arg)
		b.WriteString("\r\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func readReply(rd *bufio.Reader) (any, error) {
	prefix, err := rd.ReadByte()
	if err != nil {
		return nil, err
	}
	line, err := readLine(rd)
	if err != nil {
		return nil, err
	}

	switch prefix {
	case '+':
		return line, nil
	case '-':
		return nil, errors.New(line)
	case ':':
		return strconv.ParseInt(line, 10, 64)
	case '$':
		size, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		if size < 0 {
			return nil, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return nil, err
		}
		if buf[size] != '\r' || buf[size+1] != '\n' {
			return nil, errors.New("redis: bulk reply missing CRLF")
		}
		return buf[:size], nil
	case '*':
		count, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, nil
		}
		items := make([]any, count)
		for i := range items {
			if items[i], err = readReply(rd); err != nil {
				return nil, err
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("redis: unexpected reply prefix %q", prefix)
	}
}

func readLine(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// collapseColons squashes runs of ':' so caller-supplied fragments cannot
// smuggle empty namespace segments into the keyspace.
func collapseColons(key string) string {
	if !strings.Contains(key, "::") {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	prevColon := false
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch == ':' && prevColon {
			continue
		}
		prevColon = ch == ':'
		b.WriteByte(ch)
	}
	return b.String()
}

func millisArg(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}

// Package server exposes an engine.Store over a line-oriented TCP protocol.
//
// Each request is one line: a command followed by space separated fields.
// Responses are "OK", "OK <json>", "PONG" or "ERR <message>".
//
//	GET <area> <key>
//	SET <area> <key> <json>
//	DEL <area> <key>
//	KEYS <area>
//	CLEAR <area>
//	AREAS
//	DUMP <area>
//	PING
//	QUIT
package server

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
)

const (
	maxConnections = 100
	connLifetime   = 5 * time.Minute
	idleTimeout    = 30 * time.Second
	maxLineBytes   = 4 << 20
)

var (
	errArgs        = errors.New("wrong number of arguments")
	errLineTooLong = errors.New("line too long")
)

// readLine reads one newline terminated line holding at most limit bytes.
// A longer line is consumed and dropped so the connection stays usable.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err != nil:
			return "", err
		case tooLong:
			return "", errLineTooLong
		}
		return string(buf), nil
	}
}

type Router struct {
	store engine.Store
	cert  *tls.Certificate
	log   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

func NewRouter(s engine.Store, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{store: s, log: log.With(slog.String("component", "tcp_router"))}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Addr returns the bound address once Listen has started, or nil.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Listen starts the TCP server. It returns nil after Stop.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}, MinVersion: tls.VersionTLS12}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, maxConnections)

	for {
		conn, err := listener.Accept()
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return nil
			}
			r.log.Warn("accept failed", slog.Any("error", err))
			continue
		}

		conn.SetDeadline(time.Now().Add(connLifetime))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.handleConnection(c)
		}(conn)
	}
}

// Stop closes the listener; in-flight connections finish on their own.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

func (r *Router) handleConnection(conn net.Conn) {
	reader := bufio.NewReaderSize(conn, 64*1024)

	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))

		line, err := readLine(reader, maxLineBytes)
		if errors.Is(err, errLineTooLong) {
			fmt.Fprintln(conn, "ERR line too long")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.log.Debug("connection closed", slog.Any("error", err))
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		parts := strings.Fields(line)
		if len(parts) < 1 {
			continue
		}

		command := strings.ToUpper(parts[0])
		if command == "QUIT" {
			return
		}
		fmt.Fprintln(conn, r.execute(command, parts[1:], line))
	}
}

func (r *Router) execute(command string, args []string, line string) string {
	switch command {
	case "PING":
		return "PONG"

	case "GET":
		if len(args) != 2 {
			return errLine(errArgs)
		}
		val, err := r.store.GetItem(args[0], args[1])
		if err != nil {
			return errLine(err)
		}
		return "OK " + compact(val)

	case "SET":
		// The value is everything after the key, untouched.
		fields, value := cutFields(line, 3)
		if len(fields) != 3 || value == "" {
			return errLine(errArgs)
		}
		if !json.Valid([]byte(value)) {
			return "ERR invalid json value"
		}
		if err := r.store.SetItem(fields[1], fields[2], value); err != nil {
			return errLine(err)
		}
		return "OK"

	case "DEL":
		if len(args) != 2 {
			return errLine(errArgs)
		}
		if err := r.store.RemoveItem(args[0], args[1]); err != nil {
			return errLine(err)
		}
		return "OK"

	case "KEYS":
		if len(args) != 1 {
			return errLine(errArgs)
		}
		list, err := r.store.Keys(args[0])
		if err != nil {
			return errLine(err)
		}
		return okJSON(list)

	case "CLEAR":
		if len(args) != 1 {
			return errLine(errArgs)
		}
		if err := r.store.Clear(args[0]); err != nil {
			return errLine(err)
		}
		return "OK"

	case "AREAS":
		list, err := r.store.Areas()
		if err != nil {
			return errLine(err)
		}
		return okJSON(list)

	case "DUMP":
		if len(args) != 1 {
			return errLine(errArgs)
		}
		data, err := r.store.Dump(args[0])
		if err != nil {
			return errLine(err)
		}
		return okJSON(data)
	}
	return "ERR unknown command " + command
}

func okJSON(v any) string {
	res, err := json.Marshal(v)
	if err != nil {
		return "ERR internal error"
	}
	return "OK " + string(res)
}

// cutFields splits off the first n fields of line and returns the remainder
// verbatim.
func cutFields(line string, n int) ([]string, string) {
	var fields []string
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	for len(fields) < n && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	return fields, rest
}

// compact keeps a stored value on a single line.
func compact(val string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(val)); err != nil {
		return val
	}
	return buf.String()
}

func errLine(err error) string {
	return "ERR " + err.Error()
}

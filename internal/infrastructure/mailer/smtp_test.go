package mailer

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/users-api/internal/config"
)

type fakeSMTP struct {
	ln         net.Listener
	authOK     bool
	rejectRcpt bool
	closed     chan struct{}

	mu       sync.Mutex
	commands []string
	data     string
}

func startFakeSMTP(t *testing.T, authOK, rejectRcpt bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, authOK: authOK, rejectRcpt: rejectRcpt, closed: make(chan struct{}, 1)}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTP) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeSMTP) handle(conn net.Conn) {
	defer func() { f.closed <- struct{}{} }()
	defer conn.Close()

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 fake ESMTP ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.commands = append(f.commands, line)
		f.mu.Unlock()

		switch strings.ToUpper(strings.SplitN(line, " ", 2)[0]) {
		case "EHLO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "HELO", "NOOP", "RSET", "MAIL":
			_ = tp.PrintfLine("250 OK")
		case "AUTH":
			if f.authOK {
				_ = tp.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
			}
		case "RCPT":
			if f.rejectRcpt {
				_ = tp.PrintfLine("550 5.1.1 No such user")
			} else {
				_ = tp.PrintfLine("250 OK")
			}
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = strings.Join(lines, "\n")
			f.mu.Unlock()
			_ = tp.PrintfLine("250 OK queued")
		case "QUIT":
			_ = tp.PrintfLine("221 Bye")
			return
		default:
			_ = tp.PrintfLine("501 Syntax error")
		}
	}
}

func (f *fakeSMTP) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
}

func (f *fakeSMTP) snapshot() ([]string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...), f.data
}

func relayConfig(port int) config.SMTPConfig {
	return config.SMTPConfig{
		Server:   "127.0.0.1",
		Port:     port,
		Username: "notifier@example.com",
		Password: "secret",
		Timeout:  config.Duration(2 * time.Second),
	}
}

func TestNotifyStatusSends(t *testing.T) {
	relay := startFakeSMTP(t, true, false)
	m := New(relayConfig(relay.port()), zap.NewNop())

	sent, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana <b>", "inactive")
	require.NoError(t, err)
	assert.True(t, sent)
	relay.waitClosed(t)

	commands, data := relay.snapshot()
	joined := strings.Join(commands, "\n")
	assert.Contains(t, joined, "AUTH PLAIN")
	assert.Contains(t, joined, "MAIL FROM:<notifier@example.com>")
	assert.Contains(t, joined, "RCPT TO:<ana@example.com>")
	assert.Contains(t, joined, "QUIT")

	assert.Contains(t, data, "Subject: Estado de Usuario Inactivo")
	assert.Contains(t, data, "To: ana@example.com")
	assert.Contains(t, data, "multipart/alternative")
	assert.Contains(t, data, "text/plain; charset=utf-8")
	assert.Contains(t, data, "text/html; charset=utf-8")
	assert.Contains(t, data, "Estimado/a Ana <b>,")
	assert.Contains(t, data, "Ana &lt;b&gt;")
}

func TestNotifyStatusIgnoresOtherStatuses(t *testing.T) {
	relay := startFakeSMTP(t, true, false)
	m := New(relayConfig(relay.port()), zap.NewNop())

	for _, status := range []string{"active", "", "error", "Inactive"} {
		sent, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana", status)
		require.NoError(t, err)
		assert.False(t, sent)
	}
	commands, _ := relay.snapshot()
	assert.Empty(t, commands)
}

func TestNotifyStatusDisabledRelay(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := New(config.SMTPConfig{Server: "127.0.0.1", Port: 1}, zap.New(core))

	sent, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana", "inactive")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 1, logs.Len())
}

func TestNotifyStatusAuthRejected(t *testing.T) {
	relay := startFakeSMTP(t, false, false)
	m := New(relayConfig(relay.port()), zap.NewNop())

	sent, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana", "inactive")
	require.Error(t, err)
	assert.False(t, sent)
	assert.True(t, IsAuth(err))
	assert.False(t, IsRecipientRejected(err))
	relay.waitClosed(t)
}

func TestNotifyStatusRecipientRejected(t *testing.T) {
	relay := startFakeSMTP(t, true, true)
	m := New(relayConfig(relay.port()), zap.NewNop())

	sent, err := m.NotifyStatus(context.Background(), "nadie@example.com", "Nadie", "inactive")
	require.Error(t, err)
	assert.False(t, sent)
	assert.True(t, IsRecipientRejected(err))
	relay.waitClosed(t)

	_, data := relay.snapshot()
	assert.Empty(t, data)
}

func TestNotifyStatusRelayUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := New(relayConfig(port), zap.NewNop())
	sent, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana", "inactive")
	require.Error(t, err)
	assert.False(t, sent)
	assert.True(t, IsRelay(err))
}

func TestNotifyStatusRequiresTLS(t *testing.T) {
	relay := startFakeSMTP(t, true, false)
	cfg := relayConfig(relay.port())
	cfg.RequireTLS = true
	m := New(cfg, zap.NewNop())

	_, err := m.NotifyStatus(context.Background(), "ana@example.com", "Ana", "inactive")
	require.Error(t, err)
	assert.True(t, IsRelay(err))
	relay.waitClosed(t)

	commands, _ := relay.snapshot()
	for _, c := range commands {
		assert.False(t, strings.HasPrefix(c, "AUTH"), "credentials must not be sent without TLS")
	}
}

package external

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/config"
)

func newTestClient(t *testing.T, timeout time.Duration, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	cfg := config.ExternalConfig{
		BaseURL:       "http://external.test",
		Timeout:       config.Duration(timeout),
		HealthTimeout: config.Duration(timeout),
	}
	return NewClient(cfg, WithHTTPClient(&fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}))
}

func TestGetUserStatus(t *testing.T) {
	var path string
	client := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"id": 7, "status": "inactive", "name": "Leanne"}`)
	})

	status, err := client.GetUserStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "/users/7", path)
	assert.True(t, status.IsInactive())
	assert.Equal(t, "Leanne", status["name"])
	assert.EqualValues(t, 7, status["id"])
}

func TestGetUserStatusNotFound(t *testing.T) {
	client := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})

	status, err := client.GetUserStatus(context.Background(), 999)
	require.NoError(t, err)
	assert.NotNil(t, status)
	assert.Empty(t, status)
}

func TestGetUserStatusServerError(t *testing.T) {
	client := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	_, err := client.GetUserStatus(context.Background(), 1)
	require.Error(t, err)

	var extErr *Error
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, KindRemote, extErr.Kind)
	assert.Equal(t, 500, extErr.StatusCode)
	assert.True(t, IsRemote(err))
	assert.True(t, domain.IsDomainError(extErr.DomainError(), domain.ErrCodeRemote))
}

func TestGetUserStatusTimeout(t *testing.T) {
	client := newTestClient(t, 50*time.Millisecond, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetBodyString(`{}`)
	})

	_, err := client.GetUserStatus(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsRemote(err))

	var extErr *Error
	require.True(t, errors.As(err, &extErr))
	assert.True(t, domain.IsDomainError(extErr.DomainError(), domain.ErrCodeTimeout))
}

func TestGetUserStatusContextDeadlineWins(t *testing.T) {
	client := newTestClient(t, 10*time.Second, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetUserStatus(ctx, 1)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestGetUserStatusConnectionFailure(t *testing.T) {
	client := NewClient(config.ExternalConfig{BaseURL: "http://external.test"}, WithHTTPClient(&fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return nil, errors.New("connection refused") },
	}))

	_, err := client.GetUserStatus(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsRemote(err))
}

func TestGetUserStatusRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1, 2]`, `null`, `"inactive"`, `not json`} {
		client := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString(body)
		})
		_, err := client.GetUserStatus(context.Background(), 1)
		assert.True(t, IsRemote(err), "body %q", body)
	}
}

func TestHealth(t *testing.T) {
	var path string
	active := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		ctx.SetBodyString(`{"id": 1}`)
	})
	got := active.Health(context.Background())
	assert.Equal(t, domain.ExternalActive, got.Status)
	assert.Equal(t, "/posts/1", path)

	inactive := newTestClient(t, time.Second, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	})
	got = inactive.Health(context.Background())
	assert.Equal(t, domain.ExternalInactive, got.Status)
	assert.Contains(t, got.Message, "503")

	broken := NewClient(config.ExternalConfig{BaseURL: "http://external.test"}, WithHTTPClient(&fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return nil, errors.New("connection refused") },
	}))
	assert.Equal(t, domain.ExternalError, broken.Health(context.Background()).Status)
}

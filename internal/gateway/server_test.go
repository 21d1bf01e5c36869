package gateway

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServeAndStop(t *testing.T) {
	t.Parallel()

	s := NewServer(ServerConfig{Name: "test", ReadTimeout: time.Second}, nil)
	s.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	require.Eventually(t, s.IsRunning, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, <-done)
}

func TestServer_TrailingSlashReachesNoRoute(t *testing.T) {
	t.Parallel()

	s := NewServer(DefaultServerConfig(), nil)
	s.Engine().GET("/books", func(c *gin.Context) { c.String(http.StatusOK, "exact") })
	s.Engine().NoRoute(func(c *gin.Context) { c.String(http.StatusTeapot, c.Request.URL.Path) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	require.Eventually(t, s.IsRunning, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/books/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "/books/", string(body))
}

func TestServer_StopWhenNotRunning(t *testing.T) {
	t.Parallel()

	s := NewServer(DefaultServerConfig(), nil)
	assert.NoError(t, s.Stop(context.Background()))
}

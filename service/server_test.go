package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeGracefulShutdown(t *testing.T) {
	// Find an available port.
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	var served atomic.Bool
	started := make(chan struct{})
	srv := &http.Server{
		Addr: fmt.Sprintf("localhost:%d", port),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			// Simulate work.
			time.Sleep(100 * time.Millisecond)
			served.Store(true)
			w.WriteHeader(http.StatusOK)
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", srv.Addr)
		if err == nil {
			conn.Close()
		}
		return err == nil
	}, time.Second, 10*time.Millisecond)

	resc := make(chan int, 1)
	go func() {
		res, err := http.Get("http://" + srv.Addr + "/")
		if err != nil {
			resc <- 0
			return
		}
		res.Body.Close()
		resc <- res.StatusCode
	}()

	<-started
	cancel()
	require.NoError(t, <-done)
	assert.True(t, served.Load(), "in-flight request finishes before shutdown returns")
	assert.Equal(t, http.StatusOK, <-resc)
}

func TestServeListenError(t *testing.T) {
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer listener.Close()

	srv := &http.Server{Addr: listener.Addr().String()}
	assert.Error(t, serve(context.Background(), srv))
}

//go:build linux

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legamerdc/epollserver/capture"
	"github.com/legamerdc/epollserver/client"
)

// syncBuffer 供事件循环写、测试读
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func dial(t *testing.T, name string) *client.Client {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c, err := client.Dial(name)
		if err == nil {
			return c
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", name, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunPrintsAndCaptures(t *testing.T) {
	out := &syncBuffer{}
	cfg := defaultRunConfig()
	cfg.Log.Out = io.Discard
	cfg.Server.Name = fmt.Sprintf("epollserver-cmd-%d", os.Getpid())
	cfg.Capture = filepath.Join(t.TempDir(), "run.zst")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg, out) }()

	c := dial(t, cfg.Server.Name)
	require.NoError(t, c.SendLine("hello from test"))
	require.NoError(t, c.Send(nil))
	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), ": hello from test\n")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	f, err := os.Open(cfg.Capture)
	require.NoError(t, err)
	defer f.Close()
	r, err := capture.NewReader(f, 0)
	require.NoError(t, err)
	defer r.Close()

	var n int
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 2, n)
}

package cmd

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcpdex/mcpdex/internal/log"
)

// syncBuffer is a goroutine-safe string sink for the tee goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestStartLogTee_CopiesEntries(t *testing.T) {
	log.InitWithWriter(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf syncBuffer
	startLogTee(ctx, &buf)

	require.Eventually(t, func() bool {
		log.Info(log.CatHTTP, "tee check", "key", "value")
		return strings.Contains(buf.String(), "tee check")
	}, 2*time.Second, 20*time.Millisecond)
	require.Contains(t, buf.String(), "key=value")
}

func TestStartLogTee_UninitializedLoggerIsNoop(t *testing.T) {
	// Must not panic or spin when logging never started.
	startLogTee(context.Background(), io.Discard)
}

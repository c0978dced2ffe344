package syncl2

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClient struct {
	mu     sync.Mutex
	byHeight map[uint64]SoftConfirmation
	maxHeight uint64
}

func newFakeClient() *fakeClient {
	return &fakeClient{byHeight: map[uint64]SoftConfirmation{}}
}

func (f *fakeClient) seed(height uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHeight[height] = SoftConfirmation{Height: height}
	if height > f.maxHeight {
		f.maxHeight = height
	}
}

func (f *fakeClient) GetSoftConfirmationRange(ctx context.Context, start, end uint64) ([]SoftConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SoftConfirmation
	for h := start; h <= end; h++ {
		if sc, ok := f.byHeight[h]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func TestWorkerProcessesHeightsInOrder(t *testing.T) {
	client := newFakeClient()
	for h := uint64(1); h <= 5; h++ {
		client.seed(h)
	}

	var mu sync.Mutex
	var processed []uint64
	processor := func(ctx context.Context, sc SoftConfirmation) error {
		mu.Lock()
		processed = append(processed, sc.Height)
		mu.Unlock()
		return nil
	}

	w := New(client, processor, 3, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 1) }()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(processed)
		mu.Unlock()
		if n >= 5 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for all heights to process, got %v", processed)
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	for i, h := range processed[:5] {
		if h != uint64(i+1) {
			t.Fatalf("expected in-order heights, got %v", processed)
		}
	}
}

func TestWorkerQueuesAndRetriesFailedBlockAndSuccessors(t *testing.T) {
	client := newFakeClient()
	for h := uint64(1); h <= 3; h++ {
		client.seed(h)
	}

	var mu sync.Mutex
	var attempts int
	var processed []uint64
	processor := func(ctx context.Context, sc SoftConfirmation) error {
		mu.Lock()
		defer mu.Unlock()
		if sc.Height == 2 && attempts == 0 {
			attempts++
			return fmt.Errorf("simulated failure")
		}
		processed = append(processed, sc.Height)
		return nil
	}

	w := New(client, processor, 3, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 1) }()

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(processed)
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for retried heights to complete, got %v", processed)
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if processed[0] != 1 || processed[1] != 2 || processed[2] != 3 {
		t.Fatalf("expected [1 2 3] after retry, got %v", processed)
	}
}

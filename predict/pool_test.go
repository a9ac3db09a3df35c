package predict

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPredictor struct {
	probability float32
	err         error
	delay       time.Duration

	inFlight    int32
	maxInFlight int32
}

func (c *countingPredictor) Predict(imgData []byte) (float32, error) {
	current := atomic.AddInt32(&c.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&c.maxInFlight)
		if current <= seen || atomic.CompareAndSwapInt32(&c.maxInFlight, seen, current) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	atomic.AddInt32(&c.inFlight, -1)
	return c.probability, c.err
}

func (c *countingPredictor) Close() {}

func TestPoolPredict(t *testing.T) {
	predictor := &countingPredictor{probability: 0.7}
	pool := NewPool(predictor, 2, 10)
	defer pool.Stop()

	probability, err := pool.Predict(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, float32(0.7), probability)
}

func TestPoolPropagatesErrors(t *testing.T) {
	predictor := &countingPredictor{err: fmt.Errorf("decode failed")}
	pool := NewPool(predictor, 2, 10)
	defer pool.Stop()

	_, err := pool.Predict(context.Background(), []byte("img"))
	require.Error(t, err)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	predictor := &countingPredictor{probability: 0.5, delay: 20 * time.Millisecond}
	pool := NewPool(predictor, 2, 32)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Predict(context.Background(), []byte("img"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&predictor.maxInFlight), int32(2))
}

func TestPoolStopReleasesGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()

	pool := NewPool(&countingPredictor{probability: 0.4}, 3, 8)
	_, err := pool.Predict(context.Background(), []byte("img"))
	require.NoError(t, err)

	pool.Stop()

	//workers and the dispatcher must all exit once the pool is stopped
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoolHonorsCancellation(t *testing.T) {
	predictor := &countingPredictor{probability: 0.5, delay: time.Second}
	pool := NewPool(predictor, 1, 1)
	defer pool.Stop()

	//occupy the single worker
	go pool.Predict(context.Background(), []byte("img"))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := pool.Predict(ctx, []byte("img"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

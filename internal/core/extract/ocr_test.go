package extract

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeEngine records usage and fails the test if two goroutines ever hold it
// at the same time.
type fakeEngine struct {
	text   string
	conf   float64
	err    error
	busy   atomic.Bool
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	if !f.busy.CompareAndSwap(false, true) {
		return "", 0, errors.New("engine used concurrently")
	}
	defer f.busy.Store(false)
	f.calls.Add(1)
	return f.text, f.conf, f.err
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func TestPool_Recognize(t *testing.T) {
	engine := &fakeEngine{text: "recognized", conf: 87.5}
	pool, err := NewPool(1, func() (Engine, error) { return engine, nil })
	require.NoError(t, err)

	text, conf, err := pool.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "recognized", text)
	assert.Equal(t, 87.5, conf)
}

func TestPool_SerializesEngineAccess(t *testing.T) {
	engine := &fakeEngine{text: "ok", conf: 90}
	pool, err := NewPool(1, func() (Engine, error) { return engine, nil })
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, _, err := pool.Recognize(context.Background(), []byte("img"))
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(16), engine.calls.Load())
}

func TestPool_MultipleEngines(t *testing.T) {
	var mu sync.Mutex
	var built int
	pool, err := NewPool(3, func() (Engine, error) {
		mu.Lock()
		built++
		mu.Unlock()
		return &fakeEngine{text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, built)

	var g errgroup.Group
	for i := 0; i < 9; i++ {
		g.Go(func() error {
			_, _, err := pool.Recognize(context.Background(), nil)
			return err
		})
	}
	require.NoError(t, g.Wait())
}

func TestPool_AcquireRespectsContext(t *testing.T) {
	engine := &fakeEngine{}
	pool, err := NewPool(1, func() (Engine, error) { return engine, nil })
	require.NoError(t, err)

	// Drain the pool so acquire must block.
	held, err := pool.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = pool.Recognize(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	pool.release(held)
}

func TestPool_FactoryFailureClosesBuiltEngines(t *testing.T) {
	first := &fakeEngine{}
	n := 0
	_, err := NewPool(2, func() (Engine, error) {
		n++
		if n == 1 {
			return first, nil
		}
		return nil, errors.New("tesseract missing")
	})
	require.Error(t, err)
	assert.True(t, first.closed.Load())
}

func TestPool_Close(t *testing.T) {
	engines := []*fakeEngine{{}, {}}
	i := 0
	pool, err := NewPool(2, func() (Engine, error) {
		e := engines[i]
		i++
		return e, nil
	})
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.True(t, engines[0].closed.Load())
	assert.True(t, engines[1].closed.Load())
}

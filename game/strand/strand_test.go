package strand

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksRunInSubmissionOrder(t *testing.T) {
	s := New()
	defer s.Close()

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, s.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, s.Do(context.Background(), func() {}))

	require.Len(t, order, 100)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}

func TestDoWaitsForResult(t *testing.T) {
	s := New()
	defer s.Close()

	var got int
	err := s.Do(context.Background(), func() { got = 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestTasksNeverInterleave(t *testing.T) {
	s := New()
	defer s.Close()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(context.Background(), func() {
				v := counter
				counter = v + 1
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestDoHonorsContext(t *testing.T) {
	s := New()
	defer s.Close()

	block := make(chan struct{})
	require.NoError(t, s.Post(func() { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := s.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

func TestClosedStrandRejectsWork(t *testing.T) {
	s := New()

	ran := false
	require.NoError(t, s.Post(func() { ran = true }))
	s.Close()

	assert.True(t, ran, "queued work must drain before Close returns")
	assert.ErrorIs(t, s.Post(func() {}), ErrClosed)
	assert.ErrorIs(t, s.Do(context.Background(), func() {}), ErrClosed)
}

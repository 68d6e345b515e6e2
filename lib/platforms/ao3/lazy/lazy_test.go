package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellComputesOnce(t *testing.T) {
	var cell Cell[string]
	calls := 0
	compute := func() (string, error) {
		calls++
		return "title", nil
	}

	first, err := cell.Get(compute)
	require.NoError(t, err)
	second, err := cell.Get(compute)
	require.NoError(t, err)

	require.Equal(t, "title", first)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestCellResetIsLazy(t *testing.T) {
	var cell Cell[int]
	calls := 0
	compute := func() int {
		calls++
		return calls * 10
	}

	require.Equal(t, 10, cell.Value(compute))
	cell.Reset()
	require.Equal(t, 1, calls, "reset must not recompute")
	require.False(t, cell.Loaded())

	require.Equal(t, 20, cell.Value(compute))
	require.Equal(t, 2, calls)
}

func TestCellErrorsAreNotStored(t *testing.T) {
	var cell Cell[[]string]
	broken := errors.New("broken")

	_, err := cell.Get(func() ([]string, error) { return nil, broken })
	require.ErrorIs(t, err, broken)
	require.False(t, cell.Loaded())

	value, err := cell.Get(func() ([]string, error) { return []string{"a"}, nil })
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, value)
}

func TestCellSetSeedsValue(t *testing.T) {
	var cell Cell[int]
	cell.Set(42)

	value, ok := cell.Peek()
	require.True(t, ok)
	require.Equal(t, 42, value)
	require.Equal(t, 42, cell.Value(func() int {
		t.Fatal("seeded cell must not compute")
		return 0
	}))
}

func TestCellConcurrentFirstRead(t *testing.T) {
	var cell Cell[int]
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cell.Value(func() int {
				calls.Add(1)
				return 7
			})
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
}

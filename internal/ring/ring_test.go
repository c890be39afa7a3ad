package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacity(t *testing.T) {
	b := New(100, 0)
	assert.Equal(t, 128, b.Cap())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 128, b.Free())
}

func TestWrapAroundPeek(t *testing.T) {
	b := New(8, 0)
	_, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Discard(4))

	// 写入跨越尾部
	_, err = b.Write([]byte("ghijk"))
	require.NoError(t, err)
	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, "efghijk", string(b.Peek(7)))
	assert.Equal(t, "ef", string(b.Peek(2)))
}

func TestWrapPastMidpoint(t *testing.T) {
	b := New(8, 0)
	_, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 5, b.Discard(5))

	// 读写位置都越过一半，写入在尾部留 2 字节、头部 4 字节
	_, err = b.Write([]byte("ghijkl"))
	require.NoError(t, err)
	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, "fghijkl", string(b.Peek(7)))

	assert.Equal(t, 2, b.Discard(2))
	assert.Equal(t, "hijkl", string(b.Peek(5)))
}

func TestWrapEveryOffset(t *testing.T) {
	const size = 16
	for start := 0; start < size; start++ {
		for n := 1; n <= size-1; n++ {
			b := New(size, 0)
			_, err := b.Write(make([]byte, start+1))
			require.NoError(t, err)
			b.Discard(start)

			want := make([]byte, n)
			for i := range want {
				want[i] = byte('a' + i%26)
			}
			_, err = b.Write(want)
			require.NoError(t, err, "start=%d n=%d", start, n)
			require.Equal(t, size, b.Cap(), "start=%d n=%d", start, n)
			b.Discard(1)
			assert.Equal(t, string(want), string(b.Peek(n)), "start=%d n=%d", start, n)
		}
	}
}

func TestWriteGrowsAndKeepsOrder(t *testing.T) {
	b := New(4, 0)
	_, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	b.Discard(2)
	_, err = b.Write([]byte("defghij"))
	require.NoError(t, err)
	assert.Equal(t, 8, b.Cap())
	assert.Equal(t, "cdefghij", string(b.Peek(b.Len())))
}

func TestWriteRespectsLimit(t *testing.T) {
	b := New(4, 10)
	_, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = b.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 10, b.Len())
}

func TestDiscardResetsAndShrink(t *testing.T) {
	b := New(4, 0)
	_, err := b.Write(make([]byte, 40))
	require.NoError(t, err)
	assert.Equal(t, 64, b.Cap())

	b.Shrink()
	assert.Equal(t, 64, b.Cap(), "non-empty buffer must not shrink")

	assert.Equal(t, 40, b.Discard(100))
	assert.Equal(t, 0, b.Len())
	b.Shrink()
	assert.Equal(t, 4, b.Cap())
	assert.Empty(t, b.Peek(1))
}

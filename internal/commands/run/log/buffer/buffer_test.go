package buffer_test

import (
	"io"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/commands/run/log/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Length(t *testing.T) {
	buf := buffer.NewBuffer()

	assert.Equal(t, 0, buf.Length())

	const str1 = "0123456789"
	n, err := buf.Write([]byte(str1))
	require.NoError(t, err)
	require.Equal(t, len(str1), n)

	assert.Equal(t, len(str1), buf.Length())

	const str2 = "abcdefgh"
	n, err = buf.Write([]byte(str2))
	require.NoError(t, err)
	require.Equal(t, len(str2), n)

	assert.Equal(t, len(str1)+len(str2), buf.Length())
}

func TestBuffer_ReadAt(t *testing.T) {
	t.Run("negative offset", func(t *testing.T) {
		buf := buffer.NewBuffer()

		n, err := buf.ReadAt(nil, -1)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Zero(t, n)
	})

	t.Run("offset over length", func(t *testing.T) {
		buf := buffer.NewBuffer()

		const str = "0123456789"
		n, err := buf.Write([]byte(str))
		require.NoError(t, err)
		require.Equal(t, len(str), n)

		n, err = buf.ReadAt(nil, int64(len(str)+1))
		require.ErrorIs(t, err, io.EOF)
		assert.Zero(t, n)
	})

	t.Run("ok", func(t *testing.T) {
		buf := buffer.NewBuffer()

		const str = "0123456789"
		n, err := buf.Write([]byte(str))
		require.NoError(t, err)
		require.Equal(t, len(str), n)

		dest1 := make([]byte, 5)
		n, err = buf.ReadAt(dest1, 0)
		assert.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, []byte("01234"), dest1)

		dest2 := make([]byte, 4)
		n, err = buf.ReadAt(dest2, 4)
		assert.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, []byte("4567"), dest2)

		dest3 := make([]byte, 10)
		n, err = buf.ReadAt(dest3, 7)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte{'7', '8', '9', 0, 0, 0, 0, 0, 0, 0}, dest3)
	})
}

func TestBuffer_Bytes(t *testing.T) {
	buf := buffer.NewBuffer()

	_, err := buf.Write([]byte("hello "))
	require.NoError(t, err)

	_, err = buf.Write([]byte("world"))
	require.NoError(t, err)

	snapshot := buf.Bytes()
	assert.Equal(t, []byte("hello world"), snapshot)

	// mutating the snapshot must not affect the buffer
	snapshot[0] = 'X'
	assert.Equal(t, []byte("hello world"), buf.Bytes())
}

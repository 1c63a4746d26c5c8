package display

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBMP builds a minimal 24-bit bitmap.
func testBMP(width, height int32) []byte {
	const headers = 54
	row := (width*3 + 3) &^ 3
	size := headers + int(row*abs(height))
	b := make([]byte, size)
	b[0], b[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(b[2:], uint32(size))
	binary.LittleEndian.PutUint32(b[10:], headers)
	binary.LittleEndian.PutUint32(b[14:], 40)
	binary.LittleEndian.PutUint32(b[18:], uint32(width))
	binary.LittleEndian.PutUint32(b[22:], uint32(height))
	binary.LittleEndian.PutUint16(b[26:], 1)
	binary.LittleEndian.PutUint16(b[28:], 24)
	return b
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestSetBackground(t *testing.T) {
	d := New(1024, 768)
	_, ok := d.Background()
	assert.False(t, ok)

	require.True(t, d.SetBackground(testBMP(4, -2)))
	bg, ok := d.Background()
	require.True(t, ok)
	assert.Equal(t, "image/bmp", bg.MIME)
	assert.Equal(t, 4, bg.Width)
	assert.Equal(t, 2, bg.Height)
}

func TestSetBackgroundEmptyKeepsCurrent(t *testing.T) {
	d := New(1024, 768)
	require.True(t, d.SetBackground(testBMP(2, 2)))

	assert.False(t, d.SetBackground(nil))
	assert.False(t, d.SetBackground([]byte{}))

	bg, ok := d.Background()
	require.True(t, ok)
	assert.Equal(t, 2, bg.Width)
}

func TestRedraw(t *testing.T) {
	d := New(640, 480)
	d.Redraw()
	d.Redraw()
	assert.Equal(t, uint64(2), d.Redraws())
	w, h := d.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

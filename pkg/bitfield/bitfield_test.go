package bitfield

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLittleEndian(t *testing.T) {
	buf := []byte{0xA0, 0x0F} // bits 5,7 in byte 0, bits 8..11 in byte 1
	v, err := Extract(buf, Field{Start: 0, Length: 16, Order: LittleEndian})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0FA0), v)

	v, err = Extract(buf, Field{Start: 8, Length: 4, Order: LittleEndian})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0F), v)
}

func TestExtractBigEndian(t *testing.T) {
	// RPM example, value 4000 at start bit 24 over two bytes
	buf := []byte{0x00, 0x00, 0x00, 0x0F, 0xA0, 0x00, 0x00, 0x00}
	v, err := Extract(buf, Field{Start: 24, Length: 16, Order: BigEndian})
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), v)
}

func TestExtractOutOfRange(t *testing.T) {
	buf := []byte{0x00, 0x00}
	_, err := Extract(buf, Field{Start: 8, Length: 16, Order: LittleEndian})
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Extract(buf, Field{Start: -1, Length: 8, Order: LittleEndian})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestExtractInvalidField(t *testing.T) {
	buf := make([]byte, 16)
	_, err := Extract(buf, Field{Start: 0, Length: 0})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = Extract(buf, Field{Start: 0, Length: 65})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestPackExtractRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(0x1234))
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		for length := 1; length <= 32; length++ {
			for start := 0; start+length <= 64; start += 7 {
				f := Field{Start: start, Length: length, Order: order}
				value := rng.Uint64() & (1<<length - 1)
				buf := make([]byte, 8)
				require.NoError(t, Pack(buf, f, value))
				got, err := Extract(buf, f)
				require.NoError(t, err)
				assert.Equal(t, value, got, "order %s start %d length %d", order, start, length)
			}
		}
	}
}

func TestPackClearsOldBits(t *testing.T) {
	buf := []byte{0xFF, 0xFF}
	f := Field{Start: 4, Length: 8, Order: LittleEndian}
	require.NoError(t, Pack(buf, f, 0x00))
	v, err := Extract(buf, f)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, byte(0x0F), buf[0])
	assert.Equal(t, byte(0xF0), buf[1])
}

func TestApplySign(t *testing.T) {
	assert.Equal(t, int64(-1), ApplySign(0xFF, 8, true))
	assert.Equal(t, int64(127), ApplySign(0x7F, 8, true))
	assert.Equal(t, int64(255), ApplySign(0xFF, 8, false))
	assert.Equal(t, int64(-2048), ApplySign(0x800, 12, true))
	assert.Equal(t, int64(-1), ApplySign(0xFFFFFFFFFFFFFFFF, 64, true))
}

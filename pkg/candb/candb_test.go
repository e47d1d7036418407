package candb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodiag/candiag/pkg/bitfield"
)

func testCatalog() *Catalog {
	engine := &Message{
		ID:   0x280,
		Name: "Engine",
		DLC:  8,
		Signals: []Signal{
			{
				Name:  "EngineSpeed",
				Field: bitfield.Field{Start: 24, Length: 16, Order: bitfield.BigEndian},
				Scale: 0.25,
				Unit:  "rpm",
			},
			{
				Name:   "CoolantTemp",
				Field:  bitfield.Field{Start: 8, Length: 8, Order: bitfield.LittleEndian, Signed: true},
				Scale:  1.0,
				Offset: -40,
				Unit:   "°C",
			},
		},
	}
	return NewCatalog("TestVehicle", engine)
}

func TestSignalDecodeScaleOffset(t *testing.T) {
	// 16 bit big endian raw 4000 * 0.25 = 1000 rpm
	c := testCatalog()
	data := []byte{0x00, 0x00, 0x00, 0x0F, 0xA0, 0x00, 0x00, 0x00}
	values, ok := c.DecodeFrame(0x280, data)
	require.True(t, ok)
	require.Len(t, values, 2)
	assert.Equal(t, "EngineSpeed", values[0].Name)
	assert.Equal(t, 1000.0, values[0].Value)
}

func TestSignalDecodeSignedOffset(t *testing.T) {
	c := testCatalog()
	data := []byte{0x00, 0x78, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	m := c.DecodeFrameMap(0x280, data)
	require.NotNil(t, m)
	assert.Equal(t, 80.0, m["CoolantTemp"]) // 120 - 40
}

func TestSignalDecodeShortBufferFailsSoft(t *testing.T) {
	c := testCatalog()
	// two byte frame, EngineSpeed field lies past the end
	values, ok := c.DecodeFrame(0x280, []byte{0x00, 0x50})
	require.True(t, ok)
	assert.Equal(t, 0.0, values[0].Value)
	// CoolantTemp is still decoded from what is there
	assert.Equal(t, 40.0, values[1].Value)
}

func TestDecodeFrameUnknownID(t *testing.T) {
	c := testCatalog()
	values, ok := c.DecodeFrame(0x999, []byte{0x01, 0x02, 0x03})
	assert.False(t, ok)
	assert.Nil(t, values)
	assert.Nil(t, c.DecodeFrameMap(0x999, nil))
}

func TestDecodeFrameIdempotent(t *testing.T) {
	c := testCatalog()
	data := []byte{0x00, 0x20, 0x00, 0x0F, 0xA0, 0x00, 0x00, 0x00}
	first, _ := c.DecodeFrame(0x280, data)
	second, _ := c.DecodeFrame(0x280, data)
	assert.Equal(t, first, second)
}

func TestDecodeAllPreservesOrder(t *testing.T) {
	msg := &Message{ID: 0x100, DLC: 8}
	for _, name := range []string{"Z", "A", "M", "B"} {
		msg.Signals = append(msg.Signals, Signal{
			Name:  name,
			Field: bitfield.Field{Start: 0, Length: 8, Order: bitfield.LittleEndian},
			Scale: 1,
		})
	}
	values := msg.DecodeAll([]byte{0x01})
	var names []string
	for _, v := range values {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Z", "A", "M", "B"}, names)
}

func TestCatalogDuplicateIDLastWins(t *testing.T) {
	a := &Message{ID: 0x100, Name: "first"}
	b := &Message{ID: 0x100, Name: "second"}
	c := NewCatalog("dup", a, b)
	require.NotNil(t, c.Message(0x100))
	assert.Equal(t, "second", c.Message(0x100).Name)
	assert.Len(t, c.Messages(), 1)
}

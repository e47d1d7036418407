package candb

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodiag/candiag/pkg/bitfield"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeBlock(t *testing.T, w *bytes.Buffer, data []byte) {
	t.Helper()
	require.NoError(t, binary.Write(w, binary.BigEndian, uint16(len(data))))
	_, err := w.Write(data)
	require.NoError(t, err)
}

func buildREF(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("Racelogic Can Data File V1a\r\n")
	buf.WriteString("SN012345\r\n")
	writeBlock(t, &buf, deflate(t, []byte("SN012345")))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint16(len(entries))))
	for _, entry := range entries {
		writeBlock(t, &buf, deflate(t, []byte(entry)))
	}
	return buf.Bytes()
}

func TestLoadREF(t *testing.T) {
	raw := buildREF(t,
		"EngineSpeed,640,rpm,24,16,0,0.25,16383.75,0,unsigned,motorola,8\r\nCoolantTemp,640,C,8,8,-40,1,215,-40,signed,intel,8\r\n",
		"VehicleSpeed,645,km/h,0,16,0,0.01,655.35,0,unsigned,intel,8\r\n",
	)

	cat, err := LoadREF(bytes.NewReader(raw), "Astra")
	require.NoError(t, err)
	assert.Equal(t, "Astra", cat.Vehicle)
	require.Len(t, cat.Messages(), 2)

	engine := cat.Message(640)
	require.NotNil(t, engine)
	require.Len(t, engine.Signals, 2)
	assert.Equal(t, "EngineSpeed", engine.Signals[0].Name)
	assert.Equal(t, bitfield.BigEndian, engine.Signals[0].Field.Order)
	assert.Equal(t, 0.25, engine.Signals[0].Scale)
	assert.Equal(t, "rpm", engine.Signals[0].Unit)
	assert.True(t, engine.Signals[1].Field.Signed)
	assert.Equal(t, bitfield.LittleEndian, engine.Signals[1].Field.Order)

	// full decode path through a freshly loaded catalog
	data := []byte{0x00, 0x46, 0x00, 0x0F, 0xA0, 0x00, 0x00, 0x00}
	m := cat.DecodeFrameMap(640, data)
	require.NotNil(t, m)
	assert.Equal(t, 1000.0, m["EngineSpeed"])
	assert.Equal(t, 30.0, m["CoolantTemp"])
}

func TestLoadREFSkipsMalformedLines(t *testing.T) {
	raw := buildREF(t,
		"not a signal line\r\nEngineSpeed,640,rpm,24,16,0,0.25,16383.75,0,unsigned,motorola,8\r\nBadID,notanumber,x,0,8,0,1,0,0,unsigned,intel,8\r\n",
	)
	cat, err := LoadREF(bytes.NewReader(raw), "test")
	require.NoError(t, err)
	require.Len(t, cat.Messages(), 1)
	assert.Len(t, cat.Message(640).Signals, 1)
}

func TestLoadREFBadHeader(t *testing.T) {
	_, err := LoadREF(bytes.NewReader([]byte("some other file\r\n")), "test")
	assert.Error(t, err)
}

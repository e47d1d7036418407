package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	assert.Equal(t, []byte{0x22, 0xF1, 0x90}, Build(0x22, []byte{0xF1, 0x90}))
	assert.Equal(t, []byte{0x3E, 0x00}, BuildTesterPresent())
	assert.Equal(t, []byte{0x14, 0xFF, 0xFF, 0xFF}, BuildClearDTC())
	assert.Equal(t, []byte{0x22, 0xF1, 0x90}, BuildReadDID(DIDVIN))
	assert.Equal(t, []byte{0x10, 0x03}, BuildSessionControl(SessionExtended))
	assert.Equal(t, []byte{0x19, 0x02, 0xFF}, BuildReadDTCByStatus(0xFF))
	assert.Equal(t, []byte{0x27, 0x01}, BuildSecurityAccessSeed(0x01))
	assert.Equal(t, []byte{0x27, 0x02, 0xAA, 0xBB}, BuildSecurityAccessKey(0x01, []byte{0xAA, 0xBB}))
}

func TestRequestBytes(t *testing.T) {
	sub := byte(0x02)
	req := &Request{ServiceID: 0x19, SubFunction: &sub, Payload: []byte{0xFF}}
	assert.Equal(t, []byte{0x19, 0x02, 0xFF}, req.Bytes())
	assert.Equal(t, byte(0x59), req.ResponseSID())

	req = &Request{ServiceID: 0x3E}
	assert.Equal(t, []byte{0x3E}, req.Bytes())
}

func TestParsePositive(t *testing.T) {
	resp, err := Parse([]byte{0x62, 0xF1, 0x90, 'W', 'V', 'W'}, 0x22)
	require.NoError(t, err)
	assert.False(t, resp.IsNegative)
	assert.Equal(t, byte(0x22), resp.ServiceID)
	assert.Nil(t, resp.NRC)
	assert.Equal(t, []byte{0xF1, 0x90, 'W', 'V', 'W'}, resp.Payload)
	assert.NoError(t, resp.Err())
}

func TestParseNegative(t *testing.T) {
	resp, err := Parse([]byte{0x7F, 0x22, 0x31}, 0x22)
	require.NoError(t, err)
	assert.True(t, resp.IsNegative)
	assert.Equal(t, byte(0x22), resp.ServiceID)
	require.NotNil(t, resp.NRC)
	assert.Equal(t, byte(0x31), *resp.NRC)

	var nre *NegativeResponseError
	require.ErrorAs(t, resp.Err(), &nre)
	assert.Equal(t, byte(0x31), nre.Code)
	assert.Contains(t, nre.Error(), "ReadDataByIdentifier")
	assert.Contains(t, nre.Error(), "Request out of range")
}

func TestParsePending(t *testing.T) {
	resp, err := Parse([]byte{0x7F, 0x19, 0x78}, 0x19)
	require.NoError(t, err)
	assert.True(t, resp.Pending())
}

func TestParseWrongEcho(t *testing.T) {
	_, err := Parse([]byte{0x62, 0xF1, 0x90}, 0x19)
	assert.ErrorIs(t, err, ErrUnexpectedService)
}

func TestParseTooShort(t *testing.T) {
	_, err := Parse(nil, 0x22)
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = Parse([]byte{0x7F, 0x22}, 0x22)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestParseReadDID(t *testing.T) {
	payload, err := ParseReadDID([]byte{0x62, 0xF1, 0x90, 'A', 'B', 'C'})
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), payload)

	_, err = ParseReadDID([]byte{0x62, 0xF1})
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = ParseReadDID([]byte{0x59, 0x02, 0xFF})
	assert.ErrorIs(t, err, ErrUnexpectedService)
}

func TestParseVIN(t *testing.T) {
	assert.Equal(t, "WVWZZZ1JZ3W386752", ParseVIN([]byte("WVWZZZ1JZ3W386752")))
	assert.Equal(t, "WVW", ParseVIN([]byte{' ', 'W', 'V', 'W', 0x00}))
	// binary dominant payload falls back to hex
	assert.Equal(t, "01020304", ParseVIN([]byte{0x01, 0x02, 0x03, 0x04}))
	assert.Equal(t, "", ParseVIN(nil))
}

func TestTranslateErrorCode(t *testing.T) {
	assert.Equal(t, "Security access denied", TranslateErrorCode(0x33))
	assert.Equal(t, "Request correctly received, response pending", TranslateErrorCode(0x78))
	assert.Equal(t, "Unknown error 0xEE", TranslateErrorCode(0xEE))
}

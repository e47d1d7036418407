package uds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodiag/candiag"
	"github.com/autodiag/candiag/pkg/dtc"
)

func newTestClient(t *testing.T, profile *candiag.SimProfile) *Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if profile == nil {
		profile = &candiag.SimProfile{}
	}
	adapter, err := candiag.NewSimECUWithProfile(&candiag.AdapterConfig{}, profile)
	require.NoError(t, err)
	c, err := candiag.NewWithAdapter(ctx, adapter)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return New(c, 0x7E0, 0x7E8)
}

func TestStartSession(t *testing.T) {
	cl := newTestClient(t, nil)

	require.NoError(t, cl.StartSession(context.Background(), SessionExtended))
	assert.Equal(t, byte(SessionExtended), cl.Session())
}

func TestTesterPresent(t *testing.T) {
	cl := newTestClient(t, nil)
	require.NoError(t, cl.TesterPresent(context.Background()))
}

func TestReadVIN(t *testing.T) {
	cl := newTestClient(t, nil)

	vin, err := cl.ReadVIN(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WVWZZZ1JZ3W386752", vin)
}

func TestReadPartNumber(t *testing.T) {
	cl := newTestClient(t, nil)

	pn, err := cl.ReadPartNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "06A906032HN", pn)
}

func TestReadSerialNumber(t *testing.T) {
	cl := newTestClient(t, nil)

	serial, err := cl.ReadSerialNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "00421793", serial)
}

func TestReadDataByIdentifierUnknownDID(t *testing.T) {
	cl := newTestClient(t, nil)

	_, err := cl.ReadDataByIdentifier(context.Background(), 0xF1A0)
	var nre *NegativeResponseError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, byte(0x31), nre.Code)
}

func TestReadAndClearDTCs(t *testing.T) {
	cl := newTestClient(t, nil)
	ctx := context.Background()

	records, err := cl.ReadDTCs(ctx, 0xFF)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "P0301", records[0].Code())
	assert.Equal(t, dtc.Confirmed, records[0].Severity())
	assert.Equal(t, "P0420", records[1].Code())
	assert.Equal(t, dtc.Pending, records[1].Severity())

	require.NoError(t, cl.ClearDTCs(ctx))

	records, err = cl.ReadDTCs(ctx, 0xFF)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadDTCsStatusMask(t *testing.T) {
	cl := newTestClient(t, nil)

	// mask out pending, only the confirmed misfire remains
	records, err := cl.ReadDTCs(context.Background(), 0x08)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P0301", records[0].Code())
}

func TestReadDTCsResponsePending(t *testing.T) {
	cl := newTestClient(t, &candiag.SimProfile{PendingResponses: 2})

	records, err := cl.ReadDTCs(context.Background(), 0xFF)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSecurityAccess(t *testing.T) {
	cl := newTestClient(t, nil)

	require.NoError(t, cl.SecurityAccess(context.Background(), 0x01, nil))
	assert.True(t, cl.Unlocked())
}

func TestSecurityAccessBadKey(t *testing.T) {
	cl := newTestClient(t, nil)

	err := cl.SecurityAccess(context.Background(), 0x01, func(seed []byte) []byte {
		return make([]byte, len(seed))
	})
	var nre *NegativeResponseError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, byte(0x35), nre.Code)
	assert.False(t, cl.Unlocked())
}

func TestXORKey(t *testing.T) {
	assert.Equal(t, []byte{0x36 ^ 0x5A, 0x57 ^ 0x5A}, XORKey([]byte{0x36, 0x57}))
}

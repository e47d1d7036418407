package uds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albenik/bcd"
	"github.com/avast/retry-go"

	"github.com/autodiag/candiag"
	"github.com/autodiag/candiag/pkg/dtc"
)

var errResponsePending = errors.New("response pending")

// Client drives a UDS diagnostic session over a candiag client. Session
// state (active session, security unlock) lives here, the codec below is
// stateless.
type Client struct {
	c              *candiag.Client
	reqID, respID  uint32
	defaultTimeout time.Duration
	session        byte
	unlocked       bool
}

func New(c *candiag.Client, reqID, respID uint32) *Client {
	return &Client{
		c:              c,
		reqID:          reqID,
		respID:         respID,
		defaultTimeout: 150 * time.Millisecond,
		session:        SessionDefault,
	}
}

// SetTimeout overrides the per-request response timeout.
func (cl *Client) SetTimeout(d time.Duration) {
	cl.defaultTimeout = d
}

// Session returns the session type last accepted by the ECU.
func (cl *Client) Session() byte {
	return cl.session
}

func (cl *Client) Unlocked() bool {
	return cl.unlocked
}

// Request sends raw request bytes and returns the parsed response.
// responsePending answers are retried, other negative responses are
// returned as data with a nil error.
func (cl *Client) Request(ctx context.Context, request []byte) (*Response, error) {
	if len(request) == 0 {
		return nil, errors.New("empty request")
	}
	var resp *Response
	err := retry.Do(func() error {
		frame, err := cl.c.SendAndWait(ctx, candiag.NewFrame(cl.reqID, request, candiag.ResponseRequired), cl.defaultTimeout, cl.respID)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		r, err := Parse(frame.Data, request[0])
		if err != nil {
			return retry.Unrecoverable(err)
		}
		if r.Pending() {
			return errResponsePending
		}
		resp = r
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errResponsePending) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// request is Request with negative responses lifted to errors.
func (cl *Client) request(ctx context.Context, req []byte) (*Response, error) {
	resp, err := cl.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// StartSession switches the diagnostic session.
func (cl *Client) StartSession(ctx context.Context, session byte) error {
	resp, err := cl.request(ctx, BuildSessionControl(session))
	if err != nil {
		return fmt.Errorf("StartSession: %w", err)
	}
	if len(resp.Payload) < 1 || resp.Payload[0] != session {
		return fmt.Errorf("StartSession: session 0x%02X not echoed", session)
	}
	cl.session = session
	return nil
}

// TesterPresent keeps the current session alive.
func (cl *Client) TesterPresent(ctx context.Context) error {
	if _, err := cl.request(ctx, BuildTesterPresent()); err != nil {
		return fmt.Errorf("TesterPresent: %w", err)
	}
	return nil
}

// ReadDataByIdentifier reads one DID and returns its data record.
func (cl *Client) ReadDataByIdentifier(ctx context.Context, did uint16) ([]byte, error) {
	resp, err := cl.request(ctx, BuildReadDID(did))
	if err != nil {
		return nil, fmt.Errorf("ReadDataByIdentifier 0x%04X: %w", did, err)
	}
	if len(resp.Payload) < 2 {
		return nil, fmt.Errorf("ReadDataByIdentifier 0x%04X: %w", did, ErrTooShort)
	}
	return resp.Payload[2:], nil // skip echoed DID
}

// ReadVIN reads DID F190 and renders it as text.
func (cl *Client) ReadVIN(ctx context.Context) (string, error) {
	data, err := cl.ReadDataByIdentifier(ctx, DIDVIN)
	if err != nil {
		return "", err
	}
	return ParseVIN(data), nil
}

// ReadPartNumber reads the spare part number DID as text.
func (cl *Client) ReadPartNumber(ctx context.Context) (string, error) {
	data, err := cl.ReadDataByIdentifier(ctx, DIDSparePartNo)
	if err != nil {
		return "", err
	}
	return ParseVIN(data), nil
}

// ReadSerialNumber reads the ECU serial DID. Serials come BCD coded on
// this family of ECUs.
func (cl *Client) ReadSerialNumber(ctx context.Context) (string, error) {
	data, err := cl.ReadDataByIdentifier(ctx, DIDECUSerial)
	if err != nil {
		return "", err
	}
	if len(data) < 4 {
		return "", fmt.Errorf("ReadSerialNumber: %w", ErrTooShort)
	}
	return fmt.Sprintf("%08d", bcd.ToUint32(data[:4])), nil
}

// ReadDTCs scans stored trouble codes matching the status mask.
func (cl *Client) ReadDTCs(ctx context.Context, statusMask byte) ([]dtc.Record, error) {
	resp, err := cl.Request(ctx, BuildReadDTCByStatus(statusMask))
	if err != nil {
		return nil, fmt.Errorf("ReadDTCs: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("ReadDTCs: %w", err)
	}
	raw := append([]byte{ServiceReadDTCInformation + PositiveResponseOffset}, resp.Payload...)
	records, err := dtc.DecodeResponse(raw, ServiceReadDTCInformation+PositiveResponseOffset)
	if err != nil {
		return nil, fmt.Errorf("ReadDTCs: %w", err)
	}
	return records, nil
}

// ClearDTCs erases all stored trouble code groups.
func (cl *Client) ClearDTCs(ctx context.Context) error {
	if _, err := cl.request(ctx, BuildClearDTC()); err != nil {
		return fmt.Errorf("ClearDTCs: %w", err)
	}
	return nil
}

// KeyFunc computes a security access key from the ECU seed.
type KeyFunc func(seed []byte) []byte

// XORKey is the seed transform used by the bench ECUs, each seed byte
// xored with 0x5A.
func XORKey(seed []byte) []byte {
	key := make([]byte, len(seed))
	for i, b := range seed {
		key[i] = b ^ 0x5A
	}
	return key
}

// SecurityAccess performs the seed/key handshake for the given level
// (odd sub-function). A nil keyFn uses XORKey.
func (cl *Client) SecurityAccess(ctx context.Context, level byte, keyFn KeyFunc) error {
	if keyFn == nil {
		keyFn = XORKey
	}
	resp, err := cl.request(ctx, BuildSecurityAccessSeed(level))
	if err != nil {
		return fmt.Errorf("SecurityAccess: %w", err)
	}
	if len(resp.Payload) < 2 {
		return fmt.Errorf("SecurityAccess: %w: no seed", ErrTooShort)
	}
	seed := resp.Payload[1:]
	allZero := true
	for _, b := range seed {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		// zero seed means already unlocked
		cl.unlocked = true
		return nil
	}
	if _, err := cl.request(ctx, BuildSecurityAccessKey(level, keyFn(seed))); err != nil {
		return fmt.Errorf("SecurityAccess: %w", err)
	}
	cl.unlocked = true
	return nil
}

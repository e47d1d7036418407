// Package kwp2000 implements the KWP2000 (ISO 14230) request/response
// services used by the older VAG ECUs: session start, ECU identification
// and the 2-byte trouble code read.
package kwp2000

import (
	"context"
	"fmt"
	"time"

	"github.com/autodiag/candiag"
	"github.com/autodiag/candiag/pkg/dtc"
	"github.com/autodiag/candiag/pkg/uds"
)

const (
	serviceStartDiagnosticSession = 0x10
	serviceClearDTCs              = 0x14
	serviceReadDTCsByStatus       = 0x17
	serviceReadECUIdentification  = 0x1A
	serviceStopCommunication      = 0x82

	sessionVWDiagnostic = 0x89
	identVWStandard     = 0x9B
)

type Client struct {
	c              *candiag.Client
	canID          uint32
	recvID         []uint32
	defaultTimeout time.Duration
}

func New(c *candiag.Client, canID uint32, recvID ...uint32) *Client {
	return &Client{
		c:              c,
		canID:          canID,
		recvID:         recvID,
		defaultTimeout: 150 * time.Millisecond,
	}
}

func (t *Client) send(ctx context.Context, payload []byte) ([]byte, error) {
	frame := candiag.NewFrame(t.canID, payload, candiag.ResponseRequired)
	resp, err := t.c.SendAndWait(ctx, frame, t.defaultTimeout, t.recvID...)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// request sends a KWP request and checks the positive response SID
// (request SID + 0x40). A 7F answer is returned as a translated error.
func (t *Client) request(ctx context.Context, payload []byte) ([]byte, error) {
	raw, err := t.send(ctx, payload)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	if raw[0] == 0x7F {
		if len(raw) < 3 {
			return nil, fmt.Errorf("truncated negative response")
		}
		return nil, fmt.Errorf("%s rejected: %s", uds.TranslateServiceCode(raw[1]), TranslateErrorCode(raw[2]))
	}
	if raw[0] != payload[0]+0x40 {
		return nil, fmt.Errorf("unexpected response 0x%02X to request 0x%02X", raw[0], payload[0])
	}
	return raw, nil
}

// StartSession enters the VW diagnostic session (10 89 -> 50 89).
func (t *Client) StartSession(ctx context.Context) error {
	raw, err := t.request(ctx, []byte{serviceStartDiagnosticSession, sessionVWDiagnostic})
	if err != nil {
		return fmt.Errorf("StartSession: %w", err)
	}
	if len(raw) < 2 || raw[1] != sessionVWDiagnostic {
		return fmt.Errorf("StartSession: session not echoed")
	}
	return nil
}

// StopCommunication ends the session (82 -> C2).
func (t *Client) StopCommunication(ctx context.Context) error {
	if _, err := t.request(ctx, []byte{serviceStopCommunication}); err != nil {
		return fmt.Errorf("StopCommunication: %w", err)
	}
	return nil
}

// Identification is the parsed 1A 9B ECU ident block.
type Identification struct {
	PartNumber string
	Name       string
}

// ReadECUIdentification reads the standard ident block: part number in
// the first 11 bytes, ECU name in the remainder.
func (t *Client) ReadECUIdentification(ctx context.Context) (*Identification, error) {
	raw, err := t.request(ctx, []byte{serviceReadECUIdentification, identVWStandard})
	if err != nil {
		return nil, fmt.Errorf("ReadECUIdentification: %w", err)
	}
	ident, err := parseIdentification(raw)
	if err != nil {
		return nil, fmt.Errorf("ReadECUIdentification: %w", err)
	}
	return ident, nil
}

func parseIdentification(raw []byte) (*Identification, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("ident block too short (%d bytes)", len(raw))
	}
	data := raw[2:] // skip SID echo and ident option
	if len(data) <= 11 {
		return &Identification{PartNumber: uds.ParseVIN(data)}, nil
	}
	return &Identification{
		PartNumber: uds.ParseVIN(data[:11]),
		Name:       uds.ParseVIN(data[11:]),
	}, nil
}

// StoredDTC is one 2-byte trouble code with its KWP status byte.
type StoredDTC struct {
	Code   string
	Status byte
}

// State classifies the KWP status byte: bit 7 active, bit 0 pending.
func (s StoredDTC) State() string {
	switch {
	case s.Status&0x80 != 0:
		return "Active"
	case s.Status&0x01 != 0:
		return "Pending"
	default:
		return "Stored"
	}
}

func (s StoredDTC) String() string {
	return fmt.Sprintf("%s (%s)", s.Code, s.State())
}

// ReadDTCs reads stored trouble codes (17 00 -> 57 NN, then repeating
// 2 code bytes + status).
func (t *Client) ReadDTCs(ctx context.Context) ([]StoredDTC, error) {
	raw, err := t.request(ctx, []byte{serviceReadDTCsByStatus, 0x00})
	if err != nil {
		return nil, fmt.Errorf("ReadDTCs: %w", err)
	}
	return ParseDTCResponse(raw)
}

// ParseDTCResponse walks a 57 response. The byte after the SID is the
// reported code count, trusted only as a hint: the record bytes decide.
// A trailing partial record is dropped.
func ParseDTCResponse(raw []byte) ([]StoredDTC, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", dtc.ErrTooShort, len(raw))
	}
	if raw[0] != serviceReadDTCsByStatus+0x40 {
		return nil, fmt.Errorf("%w: got 0x%02X want 0x57", dtc.ErrUnexpectedService, raw[0])
	}
	payload := raw[2:]
	out := make([]StoredDTC, 0, len(payload)/3)
	for i := 0; i+3 <= len(payload); i += 3 {
		code := dtc.DecodeCode2(payload[i], payload[i+1])
		if code == "" {
			continue
		}
		out = append(out, StoredDTC{Code: code, Status: payload[i+2]})
	}
	return out, nil
}

// ClearDTCs erases all stored trouble codes (14 FF 00 -> 54).
func (t *Client) ClearDTCs(ctx context.Context) error {
	if _, err := t.request(ctx, []byte{serviceClearDTCs, 0xFF, 0x00}); err != nil {
		return fmt.Errorf("ClearDTCs: %w", err)
	}
	return nil
}

package uds

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrTooShort          = errors.New("response too short")
	ErrUnexpectedService = errors.New("unexpected service id in response")
)

// Response is a parsed UDS response PDU.
type Response struct {
	IsNegative bool
	ServiceID  byte  // echoed request service id
	NRC        *byte // set iff negative
	Payload    []byte
}

// Err returns a NegativeResponseError if the response is negative,
// otherwise nil. Callers decide whether a negative response is fatal.
func (r *Response) Err() error {
	if !r.IsNegative || r.NRC == nil {
		return nil
	}
	return &NegativeResponseError{Service: r.ServiceID, Code: *r.NRC}
}

// Pending reports a requestCorrectlyReceived-responsePending negative
// response, the ECU wants more time.
func (r *Response) Pending() bool {
	return r.IsNegative && r.NRC != nil && *r.NRC == NRCResponsePending
}

// Parse splits a raw response buffer against the originating request's
// service id. Positive responses echo the request SID + 0x40, negative
// responses are 7F, echoed SID, negative response code.
func Parse(raw []byte, requestSID byte) (*Response, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrTooShort)
	}
	if raw[0] == NegativeResponseSID {
		if len(raw) < 3 {
			return nil, fmt.Errorf("%w: negative response %d bytes", ErrTooShort, len(raw))
		}
		nrc := raw[2]
		return &Response{
			IsNegative: true,
			ServiceID:  raw[1],
			NRC:        &nrc,
			Payload:    raw[3:],
		}, nil
	}
	if raw[0] != requestSID+PositiveResponseOffset {
		return nil, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrUnexpectedService, raw[0], requestSID+PositiveResponseOffset)
	}
	return &Response{
		ServiceID: requestSID,
		Payload:   raw[1:],
	}, nil
}

// ParseReadDID extracts the data record from a positive
// ReadDataByIdentifier response: 62, DID high, DID low, data.
func ParseReadDID(raw []byte) ([]byte, error) {
	if len(raw) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(raw))
	}
	if raw[0] != ServiceReadDataByIdentifier+PositiveResponseOffset {
		return nil, fmt.Errorf("%w: got 0x%02X want 0x62", ErrUnexpectedService, raw[0])
	}
	return raw[3:], nil
}

// ParseVIN renders a DID payload as a trimmed ASCII string. Non printable
// bytes are replaced, and if less than half of the payload is printable
// the whole thing is rendered as uppercase hex instead, some ECUs answer
// ident DIDs with binary data.
func ParseVIN(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var printable int
	var sb strings.Builder
	for _, b := range payload {
		if b >= 0x20 && b < 0x7F {
			printable++
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	if printable*2 < len(payload) {
		return fmt.Sprintf("%X", payload)
	}
	return strings.TrimFunc(sb.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})
}

// Package dtc encodes and decodes SAE J2012 diagnostic trouble codes from
// UDS and KWP2000 response payloads.
package dtc

import (
	"errors"
	"fmt"
)

var (
	ErrTooShort          = errors.New("response too short")
	ErrUnexpectedService = errors.New("unexpected service id in response")
)

// How to read DTC codes
//B0 B1    First DTC character
//-- --    -------------------
// 0  0    P - Powertrain
// 0  1    C - Chassis
// 1  0    B - Body
// 1  1    U - Network

//B2 B3    Second DTC character
//-- --    --------------------
// 0  0    0
// 0  1    1
// 1  0    2
// 1  1    3

//B4 B5 B6 B7    Third/Fourth/Fifth DTC characters
//-- -- -- --    hex digit 0-F

type System byte

const (
	Powertrain System = iota
	Chassis
	Body
	Network
)

func (s System) Letter() byte {
	return [4]byte{'P', 'C', 'B', 'U'}[s&0x03]
}

func (s System) String() string {
	switch s {
	case Powertrain:
		return "Powertrain"
	case Chassis:
		return "Chassis"
	case Body:
		return "Body"
	default:
		return "Network"
	}
}

// Severity classifies the UDS status byte. Canonical bit priority:
// confirmed (bit 3) over pending (bit 2) over test failed (bit 0).
type Severity byte

const (
	Stored Severity = iota
	TestFailed
	Pending
	Confirmed
)

func (s Severity) String() string {
	switch s {
	case Confirmed:
		return "Confirmed"
	case Pending:
		return "Pending"
	case TestFailed:
		return "TestFailed"
	default:
		return "Stored"
	}
}

// Record is one decoded trouble code with its raw status byte.
type Record struct {
	System      System
	FirstDigit  byte // 0-3
	SecondDigit byte // hex nibble
	ThirdDigit  byte
	FourthDigit byte
	Extra       byte // third wire byte, OEM specific, not part of the code
	Status      byte
}

// Code formats the record as the printable alphanumeric code, e.g. P0301.
func (r Record) Code() string {
	return fmt.Sprintf("%c%d%X%X%X", r.System.Letter(), r.FirstDigit, r.SecondDigit, r.ThirdDigit, r.FourthDigit)
}

func (r Record) Severity() Severity {
	return DecodeStatus(r.Status)
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s, status 0x%02X)", r.Code(), r.Severity(), r.Status)
}

// Decode builds a record from the 3 code bytes and status byte of a UDS
// DTC record. The third byte is OEM specific and carried through unused.
func Decode(high, mid, low, status byte) Record {
	return Record{
		System:      System(high >> 6 & 0x03),
		FirstDigit:  high >> 4 & 0x03,
		SecondDigit: high & 0x0F,
		ThirdDigit:  mid >> 4 & 0x0F,
		FourthDigit: mid & 0x0F,
		Extra:       low,
		Status:      status,
	}
}

// DecodeStatus classifies a UDS DTC status byte.
func DecodeStatus(status byte) Severity {
	switch {
	case status&0x08 != 0: // confirmedDTC
		return Confirmed
	case status&0x04 != 0: // pendingDTC
		return Pending
	case status&0x01 != 0: // testFailed
		return TestFailed
	default:
		return Stored
	}
}

// DecodeResponse walks a positive ReadDTCInformation style response:
// SID, sub-function and availability mask followed by fixed 4 byte
// records. A trailing partial record is dropped, padded and truncated
// hardware responses are routine.
func DecodeResponse(raw []byte, positiveSID byte) ([]Record, error) {
	if len(raw) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(raw))
	}
	if raw[0] != positiveSID {
		return nil, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrUnexpectedService, raw[0], positiveSID)
	}
	payload := raw[3:]
	records := make([]Record, 0, len(payload)/4)
	for i := 0; i+4 <= len(payload); i += 4 {
		records = append(records, Decode(payload[i], payload[i+1], payload[i+2], payload[i+3]))
	}
	return records, nil
}

// DecodeCode2 decodes a 2-byte DTC value (A,B) into a string like "P0122",
// the compact form used by KWP2000 and GMLAN responses. Returns "" if both
// bytes are zero, which usually means no code.
func DecodeCode2(a, b byte) string {
	if a == 0 && b == 0 {
		return ""
	}
	r := Record{
		System:      System(a >> 6 & 0x03),
		FirstDigit:  a >> 4 & 0x03,
		SecondDigit: a & 0x0F,
		ThirdDigit:  b >> 4 & 0x0F,
		FourthDigit: b & 0x0F,
	}
	return r.Code()
}

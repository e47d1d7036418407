// Package bitfield extracts and packs arbitrary bit ranges in CAN frame
// buffers. It implements both the Intel (little endian, LSB first) and
// Motorola (big endian, MSB first) signal conventions.
package bitfield

import (
	"errors"
	"fmt"
)

type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota // Intel
	BigEndian                     // Motorola
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

var (
	ErrOutOfRange   = errors.New("bit range exceeds buffer")
	ErrInvalidField = errors.New("invalid field")
)

// Field describes a bit range within a byte buffer.
type Field struct {
	Start  int // 0-based absolute bit position
	Length int // 1..64
	Order  ByteOrder
	Signed bool
}

func (f Field) validate(bufLen int) error {
	if f.Length < 1 || f.Length > 64 {
		return fmt.Errorf("%w: length %d", ErrInvalidField, f.Length)
	}
	if f.Start < 0 || f.Start+f.Length > bufLen*8 {
		return fmt.Errorf("%w: start %d length %d buffer %d bytes", ErrOutOfRange, f.Start, f.Length, bufLen)
	}
	return nil
}

// Extract reads the raw unsigned value of the field from buf.
//
// LittleEndian maps field bit i to absolute bit Start+i with LSB-first bit
// numbering inside each byte. BigEndian numbers bits MSB-first inside each
// byte and assembles the most significant result bit first, so a 16 bit
// field at Start 24 reads buf[3]<<8 | buf[4].
func Extract(buf []byte, f Field) (uint64, error) {
	if err := f.validate(len(buf)); err != nil {
		return 0, err
	}
	var value uint64
	switch f.Order {
	case BigEndian:
		for i := 0; i < f.Length; i++ {
			abs := f.Start + i
			bit := buf[abs/8] >> (7 - abs%8) & 1
			value = value<<1 | uint64(bit)
		}
	default:
		for i := 0; i < f.Length; i++ {
			abs := f.Start + i
			bit := buf[abs/8] >> (abs % 8) & 1
			value |= uint64(bit) << i
		}
	}
	return value, nil
}

// Pack is the inverse of Extract, writing value into buf. Bits of value
// above Length are ignored.
func Pack(buf []byte, f Field, value uint64) error {
	if err := f.validate(len(buf)); err != nil {
		return err
	}
	switch f.Order {
	case BigEndian:
		for i := 0; i < f.Length; i++ {
			abs := f.Start + i
			bit := byte(value >> (f.Length - 1 - i) & 1)
			mask := byte(1) << (7 - abs%8)
			if bit == 1 {
				buf[abs/8] |= mask
			} else {
				buf[abs/8] &^= mask
			}
		}
	default:
		for i := 0; i < f.Length; i++ {
			abs := f.Start + i
			bit := byte(value >> i & 1)
			mask := byte(1) << (abs % 8)
			if bit == 1 {
				buf[abs/8] |= mask
			} else {
				buf[abs/8] &^= mask
			}
		}
	}
	return nil
}

// ApplySign reinterprets raw as a two's complement value of the given bit
// length. Unsigned fields pass through unchanged.
func ApplySign(raw uint64, length int, signed bool) int64 {
	if !signed || length <= 0 || length >= 64 {
		return int64(raw)
	}
	if raw&(1<<(length-1)) != 0 {
		return int64(raw) - int64(1)<<length
	}
	return int64(raw)
}

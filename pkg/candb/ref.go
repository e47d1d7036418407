package candb

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autodiag/candiag/pkg/bitfield"
)

// Racelogic CAN Data File V1a: two CRLF terminated header lines, a
// length-prefixed zlib serial block, an entry count and then one zlib
// compressed block of CSV signal lines per entry.
const refSignature = "Racelogic Can Data File V1a"

// LoadREFFile parses a .REF vehicle profile into a catalog. The file stem
// is used as the vehicle name.
func LoadREFFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vehicle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadREF(f, vehicle)
}

// LoadREF parses REF data from r. Individual malformed signal lines are
// skipped, a profile with a few bad rows still loads.
func LoadREF(r io.Reader, vehicle string) (*Catalog, error) {
	br := bufio.NewReader(r)

	header, err := readCRLFLine(br)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.HasPrefix(header, refSignature) {
		return nil, fmt.Errorf("not a Racelogic REF file (header %q)", header)
	}
	if _, err := readCRLFLine(br); err != nil { // serial string
		return nil, fmt.Errorf("read serial string: %w", err)
	}
	if _, err := readZlibBlock(br); err != nil { // compressed serial, unused
		return nil, fmt.Errorf("read serial block: %w", err)
	}

	var totalEntries uint16
	if err := binary.Read(br, binary.BigEndian, &totalEntries); err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}

	var lines []string
	for i := uint16(0); i < totalEntries; i++ {
		compressed, err := readZlibBlock(br)
		if err != nil {
			return nil, fmt.Errorf("read entry #%d: %w", i+1, err)
		}
		plain, err := inflate(compressed)
		if err != nil {
			// tolerate a corrupt entry, the rest of the profile is still usable
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(plain))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return parseSignalLines(vehicle, lines), nil
}

// parseSignalLines converts CSV signal rows into messages. Row layout:
// name, message id, unit, start bit, bit length, offset, factor, max, min,
// signed|unsigned, intel|motorola[, dlc]
func parseSignalLines(vehicle string, lines []string) *Catalog {
	byID := make(map[uint32]*Message)
	var order []uint32

	for _, line := range lines {
		parts := strings.Split(strings.Trim(line, " \t,"), ",")
		if len(parts) < 11 {
			continue
		}
		msgID, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			continue
		}
		startBit, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil {
			continue
		}
		length, err := strconv.Atoi(strings.TrimSpace(parts[4]))
		if err != nil || length < 1 || length > 64 {
			continue
		}
		offset, _ := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
		factor, _ := strconv.ParseFloat(strings.TrimSpace(parts[6]), 64)
		max, _ := strconv.ParseFloat(strings.TrimSpace(parts[7]), 64)
		min, _ := strconv.ParseFloat(strings.TrimSpace(parts[8]), 64)
		if factor == 0 {
			factor = 1.0
		}

		byteOrder := bitfield.BigEndian // motorola unless the row says intel
		if strings.EqualFold(strings.TrimSpace(parts[10]), "intel") {
			byteOrder = bitfield.LittleEndian
		}

		dlc := 8
		if len(parts) >= 12 {
			if v, err := strconv.Atoi(strings.TrimSpace(parts[11])); err == nil && v >= 0 && v <= 8 {
				dlc = v
			}
		}

		id := uint32(msgID)
		msg, ok := byID[id]
		if !ok {
			msg = &Message{
				ID:   id,
				Name: fmt.Sprintf("MSG_%03X", id),
				DLC:  dlc,
			}
			byID[id] = msg
			order = append(order, id)
		}
		if dlc > msg.DLC {
			msg.DLC = dlc
		}

		msg.Signals = append(msg.Signals, Signal{
			Name: strings.TrimSpace(parts[0]),
			Field: bitfield.Field{
				Start:  startBit,
				Length: length,
				Order:  byteOrder,
				Signed: strings.EqualFold(strings.TrimSpace(parts[9]), "signed"),
			},
			Scale:  factor,
			Offset: offset,
			Min:    min,
			Max:    max,
			Unit:   strings.TrimSpace(parts[2]),
		})
	}

	messages := make([]*Message, 0, len(order))
	for _, id := range order {
		messages = append(messages, byID[id])
	}
	return NewCatalog(vehicle, messages...)
}

func readCRLFLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readZlibBlock(r io.Reader) ([]byte, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read block length: %w", err)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read block data (%d bytes): %w", length, err)
	}
	return data, nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

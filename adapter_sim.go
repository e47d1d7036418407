package candiag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:        "SimECU",
		Description: "Simulated bench ECU, no hardware required",
		New:         NewSimECU,
	}); err != nil {
		panic(err)
	}
}

// SimBroadcast is a periodic frame the simulated ECU puts on the bus,
// engine rpm and the like.
type SimBroadcast struct {
	Identifier uint32
	Data       []byte
	Interval   time.Duration
}

// SimProfile configures the simulated ECU. The zero value is usable, a
// default bench profile is filled in.
type SimProfile struct {
	RequestID  uint32 // tester -> ECU, default 0x7E0
	ResponseID uint32 // ECU -> tester, default 0x7E8

	VIN        string
	PartNumber string
	ECUName    string
	SerialBCD  []byte // BCD coded ECU serial

	// Stored trouble codes: 3 code bytes + status byte each.
	DTCs [][4]byte

	SecuritySeed []byte // seed handed out by SecurityAccess, key = seed xor 0x5A

	// Number of responsePending answers sent before each ReadDTC reply.
	PendingResponses int

	Broadcast []SimBroadcast
}

func (p *SimProfile) fillDefaults() {
	if p.RequestID == 0 {
		p.RequestID = 0x7E0
	}
	if p.ResponseID == 0 {
		p.ResponseID = 0x7E8
	}
	if p.VIN == "" {
		p.VIN = "WVWZZZ1JZ3W386752"
	}
	if p.PartNumber == "" {
		p.PartNumber = "06A906032HN"
	}
	if p.ECUName == "" {
		p.ECUName = "MOTRONIC ME7.5"
	}
	if p.SerialBCD == nil {
		p.SerialBCD = []byte{0x00, 0x42, 0x17, 0x93}
	}
	if p.DTCs == nil {
		p.DTCs = [][4]byte{
			{0x03, 0x01, 0x00, 0x08}, // P0301 confirmed
			{0x04, 0x20, 0x00, 0x04}, // P0420 pending
		}
	}
	if p.SecuritySeed == nil {
		p.SecuritySeed = []byte{0x36, 0x57}
	}
}

// SimECU is a mock hardware adapter that answers standard UDS services
// from a canned vehicle profile. Used for bench testing and demos when no
// VCI is attached.
type SimECU struct {
	*BaseAdapter
	profile *SimProfile

	mu       sync.Mutex
	dtcs     [][4]byte
	unlocked bool
	pending  int
}

var defaultSimProfile SimProfile

func NewSimECU(cfg *AdapterConfig) (Adapter, error) {
	return NewSimECUWithProfile(cfg, &defaultSimProfile)
}

func NewSimECUWithProfile(cfg *AdapterConfig, profile *SimProfile) (Adapter, error) {
	p := *profile
	p.fillDefaults()
	sim := &SimECU{
		BaseAdapter: NewBaseAdapter("SimECU", cfg),
		profile:     &p,
		pending:     p.PendingResponses,
	}
	sim.dtcs = append(sim.dtcs, p.DTCs...)
	return sim, nil
}

func (sim *SimECU) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.sendManager(gctx) })
	g.Go(func() error { return sim.broadcastManager(gctx) })
	go func() {
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			sim.Fatal(err)
		}
	}()
	return nil
}

func (sim *SimECU) Close() error {
	sim.BaseAdapter.Close()
	return nil
}

func (sim *SimECU) sendManager(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sim.closeChan:
			return nil
		case frame := <-sim.sendChan:
			if frame.Identifier != sim.profile.RequestID {
				continue
			}
			if sim.cfg != nil && sim.cfg.Debug {
				sim.Debug(frame.String())
			}
			for _, resp := range sim.handleRequest(frame.Data) {
				sim.reply(resp)
			}
		}
	}
}

func (sim *SimECU) broadcastManager(ctx context.Context) error {
	if len(sim.profile.Broadcast) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := sim.profile.Broadcast[0].Interval
	for _, b := range sim.profile.Broadcast {
		if b.Interval < interval && b.Interval > 0 {
			interval = b.Interval
		}
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sim.closeChan:
			return nil
		case <-t.C:
			for _, b := range sim.profile.Broadcast {
				sim.emit(b.Identifier, b.Data)
			}
		}
	}
}

func (sim *SimECU) reply(data []byte) {
	sim.emit(sim.profile.ResponseID, data)
}

func (sim *SimECU) emit(identifier uint32, data []byte) {
	frame := NewFrame(identifier, data, Incoming)
	select {
	case sim.recvChan <- frame:
	default:
		sim.Error(ErrDroppedFrame)
	}
}

// handleRequest maps a raw UDS request to one or more response payloads.
func (sim *SimECU) handleRequest(req []byte) [][]byte {
	if len(req) == 0 {
		return nil
	}
	sid := req[0]
	switch sid {
	case 0x10: // DiagnosticSessionControl
		if len(req) < 2 {
			return negative(sid, 0x13)
		}
		return positive([]byte{0x50, req[1], 0x00, 0x32, 0x01, 0xF4})

	case 0x3E: // TesterPresent
		return positive([]byte{0x7E, 0x00})

	case 0x22: // ReadDataByIdentifier
		if len(req) < 3 {
			return negative(sid, 0x13)
		}
		did := uint16(req[1])<<8 | uint16(req[2])
		switch did {
		case 0xF190:
			return positive(append([]byte{0x62, req[1], req[2]}, sim.profile.VIN...))
		case 0xF187:
			return positive(append([]byte{0x62, req[1], req[2]}, sim.profile.PartNumber...))
		case 0xF18C:
			return positive(append([]byte{0x62, req[1], req[2]}, sim.profile.SerialBCD...))
		default:
			return negative(sid, 0x31)
		}

	case 0x19: // ReadDTCInformation
		if len(req) < 3 || req[1] != 0x02 {
			return negative(sid, 0x12)
		}
		mask := req[2]
		sim.mu.Lock()
		resp := []byte{0x59, 0x02, 0xFF}
		for _, rec := range sim.dtcs {
			if rec[3]&mask != 0 || mask == 0 {
				resp = append(resp, rec[0], rec[1], rec[2], rec[3])
			}
		}
		var out [][]byte
		for sim.pending > 0 {
			out = append(out, []byte{0x7F, sid, 0x78})
			sim.pending--
		}
		sim.mu.Unlock()
		return append(out, resp)

	case 0x14: // ClearDiagnosticInformation, UDS group FFFFFF or KWP FF 00
		if len(req) < 3 {
			return negative(sid, 0x13)
		}
		sim.mu.Lock()
		sim.dtcs = sim.dtcs[:0]
		sim.mu.Unlock()
		return positive([]byte{0x54})

	case 0x17: // KWP readDiagnosticTroubleCodesByStatus
		sim.mu.Lock()
		resp := []byte{0x57, byte(len(sim.dtcs))}
		for _, rec := range sim.dtcs {
			resp = append(resp, rec[0], rec[1], rec[3])
		}
		sim.mu.Unlock()
		return positive(resp)

	case 0x1A: // KWP readECUIdentification
		if len(req) < 2 || req[1] != 0x9B {
			return negative(sid, 0x12)
		}
		resp := append([]byte{0x5A, 0x9B}, []byte(fmt.Sprintf("%-11s", sim.profile.PartNumber))...)
		return positive(append(resp, sim.profile.ECUName...))

	case 0x82: // KWP stopCommunication
		return positive([]byte{0xC2})

	case 0x27: // SecurityAccess
		if len(req) < 2 {
			return negative(sid, 0x13)
		}
		switch req[1] {
		case 0x01:
			return positive(append([]byte{0x67, 0x01}, sim.profile.SecuritySeed...))
		case 0x02:
			key := req[2:]
			want := make([]byte, len(sim.profile.SecuritySeed))
			for i, b := range sim.profile.SecuritySeed {
				want[i] = b ^ 0x5A
			}
			if len(key) != len(want) {
				return negative(sid, 0x35)
			}
			for i := range want {
				if key[i] != want[i] {
					return negative(sid, 0x35)
				}
			}
			sim.mu.Lock()
			sim.unlocked = true
			sim.mu.Unlock()
			return positive([]byte{0x67, 0x02})
		default:
			return negative(sid, 0x12)
		}

	default:
		return negative(sid, 0x11)
	}
}

func positive(data []byte) [][]byte {
	return [][]byte{data}
}

func negative(sid, nrc byte) [][]byte {
	return [][]byte{{0x7F, sid, nrc}}
}

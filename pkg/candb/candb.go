// Package candb models vehicle CAN signal databases: named scaled bit
// fields grouped into messages, keyed by arbitration id. Catalogs are
// immutable once built and safe for concurrent decode.
package candb

import (
	"fmt"
	"sort"

	"github.com/autodiag/candiag/pkg/bitfield"
)

// Signal is a named scaled bit field within a CAN message.
type Signal struct {
	Name   string
	Field  bitfield.Field
	Scale  float64
	Offset float64
	Min    float64 // informational, not enforced at decode time
	Max    float64
	Unit   string
}

// Decode extracts the raw field from data and applies scale and offset.
// Short or malformed buffers decode to 0.0 so one bad signal never aborts
// the rest of the frame, live capture delivers truncated frames all the
// time.
func (s *Signal) Decode(data []byte) float64 {
	raw, err := bitfield.Extract(data, s.Field)
	if err != nil {
		return 0.0
	}
	value := float64(raw)
	if s.Field.Signed {
		value = float64(bitfield.ApplySign(raw, s.Field.Length, true))
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1.0
	}
	return value*scale + s.Offset
}

// SignalValue is a decoded signal in catalog definition order.
type SignalValue struct {
	Name  string
	Value float64
	Unit  string
}

func (sv SignalValue) String() string {
	if sv.Unit != "" {
		return fmt.Sprintf("%s: %g %s", sv.Name, sv.Value, sv.Unit)
	}
	return fmt.Sprintf("%s: %g", sv.Name, sv.Value)
}

// Message is an ordered set of signals sharing one arbitration id.
type Message struct {
	ID      uint32
	Name    string
	DLC     int
	Signals []Signal
}

// DecodeAll decodes every signal independently, preserving definition
// order.
func (m *Message) DecodeAll(data []byte) []SignalValue {
	out := make([]SignalValue, 0, len(m.Signals))
	for i := range m.Signals {
		s := &m.Signals[i]
		out = append(out, SignalValue{Name: s.Name, Value: s.Decode(data), Unit: s.Unit})
	}
	return out
}

// DecodeMap is DecodeAll keyed by signal name.
func (m *Message) DecodeMap(data []byte) map[string]float64 {
	out := make(map[string]float64, len(m.Signals))
	for i := range m.Signals {
		s := &m.Signals[i]
		out[s.Name] = s.Decode(data)
	}
	return out
}

// Catalog maps arbitration ids to message definitions for one vehicle
// profile.
type Catalog struct {
	Vehicle  string
	messages map[uint32]*Message
	order    []uint32
}

// NewCatalog builds an immutable catalog. A duplicate message id replaces
// the earlier definition.
func NewCatalog(vehicle string, messages ...*Message) *Catalog {
	c := &Catalog{
		Vehicle:  vehicle,
		messages: make(map[uint32]*Message, len(messages)),
	}
	for _, m := range messages {
		if _, exists := c.messages[m.ID]; !exists {
			c.order = append(c.order, m.ID)
		}
		c.messages[m.ID] = m
	}
	return c
}

// Message looks up a message definition, nil if the id is unknown.
func (c *Catalog) Message(id uint32) *Message {
	return c.messages[id]
}

// Messages returns all message definitions in catalog order.
func (c *Catalog) Messages() []*Message {
	out := make([]*Message, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.messages[id])
	}
	return out
}

// IDs returns all known arbitration ids, sorted.
func (c *Catalog) IDs() []uint32 {
	out := make([]uint32, 0, len(c.messages))
	for id := range c.messages {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodeFrame decodes a full frame into ordered signal values. Returns
// ok=false for unknown arbitration ids.
func (c *Catalog) DecodeFrame(id uint32, data []byte) ([]SignalValue, bool) {
	msg, found := c.messages[id]
	if !found {
		return nil, false
	}
	return msg.DecodeAll(data), true
}

// DecodeFrameMap decodes a full frame into a name to value map, nil for
// unknown ids.
func (c *Catalog) DecodeFrameMap(id uint32, data []byte) map[string]float64 {
	msg, found := c.messages[id]
	if !found {
		return nil
	}
	return msg.DecodeMap(data)
}

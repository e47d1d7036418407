package candiag

import (
	"context"
	"time"
)

type Client struct {
	adapter Adapter
	fh      *handler
}

// New creates a named adapter from the registry, opens it and starts the
// frame fan-out.
func New(ctx context.Context, adapterName string, cfg *AdapterConfig) (*Client, error) {
	adapter, err := NewAdapter(adapterName, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithAdapter(ctx, adapter)
}

// NewWithAdapter wraps an already constructed adapter.
func NewWithAdapter(ctx context.Context, adapter Adapter) (*Client, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	c := &Client{
		adapter: adapter,
		fh:      newHandler(adapter),
	}
	if err := adapter.Open(ctx); err != nil {
		return nil, err
	}
	go c.fh.run(ctx)
	return c, nil
}

func (c *Client) Adapter() Adapter {
	return c.adapter
}

func (c *Client) Close() error {
	c.fh.Close()
	return c.adapter.Close()
}

// Send a CAN Frame
func (c *Client) Send(frame *CANFrame) error {
	select {
	case c.adapter.Send() <- frame:
		return nil
	case <-time.After(5 * time.Second):
		return ErrSendTimeout
	}
}

// SendFrame sends a standard 11bit frame
func (c *Client) SendFrame(identifier uint32, data []byte, t CANFrameType) error {
	return c.Send(NewFrame(identifier, data, t))
}

// Subscribe returns a subscriber delivering frames matching the given
// identifiers. No identifiers means all frames.
func (c *Client) Subscribe(ctx context.Context, identifiers ...uint32) *Subscriber {
	sub := &Subscriber{
		cl:           c,
		identifiers:  make(map[uint32]struct{}, len(identifiers)),
		filterCount:  len(identifiers),
		responseChan: make(chan *CANFrame, 20),
	}
	for _, id := range identifiers {
		sub.identifiers[id] = struct{}{}
	}
	c.fh.registerSubscriber(sub)
	return sub
}

// SubscribeFunc calls fn for every matching frame until the context is done
// or the subscriber is closed.
func (c *Client) SubscribeFunc(ctx context.Context, fn func(*CANFrame), identifiers ...uint32) *Subscriber {
	sub := c.Subscribe(ctx, identifiers...)
	go func() {
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case frame, ok := <-sub.responseChan:
				if !ok {
					return
				}
				fn(frame)
			}
		}
	}()
	return sub
}

// SendAndWait sends a frame and waits for the first response frame matching
// any of the given identifiers.
func (c *Client) SendAndWait(ctx context.Context, frame *CANFrame, timeout time.Duration, identifiers ...uint32) (*CANFrame, error) {
	sub := c.Subscribe(ctx, identifiers...)
	defer sub.Close()
	if err := c.Send(frame); err != nil {
		return nil, err
	}
	return sub.Wait(ctx, timeout)
}

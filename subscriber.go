package candiag

import (
	"context"
	"sync"
	"time"
)

type Subscriber struct {
	cl           *Client
	identifiers  map[uint32]struct{}
	filterCount  int
	responseChan chan *CANFrame
	closeOnce    sync.Once
}

func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.cl.fh.unregisterSubscriber(s)
	})
}

func (s *Subscriber) Chan() <-chan *CANFrame {
	return s.responseChan
}

// Wait blocks until a frame is delivered, the context is done or the timeout
// expires.
func (s *Subscriber) Wait(ctx context.Context, timeout time.Duration) (*CANFrame, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-s.responseChan:
		if !ok {
			return nil, ErrResponseChannelClosed
		}
		return frame, nil
	case <-t.C:
		ids := make([]uint32, 0, len(s.identifiers))
		for id := range s.identifiers {
			ids = append(ids, id)
		}
		return nil, &TimeoutError{Timeout: timeout.Milliseconds(), Frames: ids}
	}
}

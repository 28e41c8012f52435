package queue

import "context"

// memoryBuffer bounds how many queued jobs the in-process driver holds
// before Push blocks. Cleanup bursts after a large catalogue delete stay
// well under this.
const memoryBuffer = 1000

// MemoryDriver is an in-process, channel-backed queue driver. It is the
// default when QUEUE_DRIVER is unset: jobs live and die with the server
// process, which is fine for development and single-node deployments.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver creates an in-memory queue.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, memoryBuffer)}
}

func (d *MemoryDriver) Push(payload []byte) error {
	d.ch <- payload
	return nil
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

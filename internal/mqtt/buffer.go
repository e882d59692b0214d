package mqtt

import "log"

// pending is a serialized message held while the broker is unreachable.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of pending messages. When full, the
// oldest message is dropped. Not safe for concurrent use.
type backlog struct {
	items   []pending
	head    int // next write position
	count   int
	dropped int // messages dropped since last drain
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{items: make([]pending, capacity)}
}

func (b *backlog) push(msg pending) {
	size := len(b.items)
	b.items[b.head] = msg
	b.head = (b.head + 1) % size
	if b.count < size {
		b.count++
		return
	}
	if b.dropped == 0 {
		log.Printf("mqtt: backlog full (%d messages), dropping oldest", size)
	}
	b.dropped++
}

// drain returns pending messages oldest first and empties the backlog.
func (b *backlog) drain() []pending {
	if b.count == 0 {
		return nil
	}
	size := len(b.items)
	out := make([]pending, 0, b.count)
	for i := b.head - b.count; i < b.head; i++ {
		out = append(out, b.items[(i+size)%size])
	}
	b.head, b.count, b.dropped = 0, 0, 0
	return out
}

func (b *backlog) len() int {
	return b.count
}

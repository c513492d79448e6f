package mqtt

import "github.com/sirupsen/logrus"

// queuedMsg is a serialized message held for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that keeps the newest messages while
// disconnected. Not safe for concurrent use; the owner synchronizes.
type ringBuffer struct {
	buf     []queuedMsg
	head    int // next write position
	count   int
	dropped int // messages overwritten since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]queuedMsg, capacity)}
}

func (r *ringBuffer) push(msg queuedMsg) {
	if r.count == len(r.buf) {
		if r.dropped == 0 {
			logrus.WithField("capacity", len(r.buf)).Warn("mqtt: buffer full, dropping oldest")
		}
		r.dropped++
	} else {
		r.count++
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
}

// drain returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drain() (msgs []queuedMsg, dropped int) {
	if r.count == 0 {
		return nil, 0
	}

	msgs = make([]queuedMsg, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range msgs {
		msgs[i] = r.buf[(start+i)%len(r.buf)]
	}

	dropped = r.dropped
	r.count, r.head, r.dropped = 0, 0, 0
	return msgs, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}

package mqtt

// DefaultBufferSize is the number of messages kept while the broker is unreachable.
const DefaultBufferSize = 256

// pendingMsg is a serialized message waiting for the broker to come back.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue is a fixed-capacity FIFO that keeps the newest messages.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type offlineQueue struct {
	msgs    []pendingMsg
	next    int // slot for the next push
	count   int
	dropped int // messages overwritten since the last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &offlineQueue{msgs: make([]pendingMsg, capacity)}
}

// push appends msg, overwriting the oldest entry when full.
// It reports whether an entry was dropped.
func (q *offlineQueue) push(msg pendingMsg) bool {
	q.msgs[q.next] = msg
	q.next = (q.next + 1) % len(q.msgs)
	if q.count == len(q.msgs) {
		q.dropped++
		return true
	}
	q.count++
	return false
}

// drain returns queued messages oldest first along with the number dropped,
// and empties the queue.
func (q *offlineQueue) drain() ([]pendingMsg, int) {
	dropped := q.dropped
	q.dropped = 0
	if q.count == 0 {
		return nil, dropped
	}

	out := make([]pendingMsg, 0, q.count)
	start := (q.next - q.count + len(q.msgs)) % len(q.msgs)
	for i := 0; i < q.count; i++ {
		out = append(out, q.msgs[(start+i)%len(q.msgs)])
	}

	q.count = 0
	q.next = 0
	return out, dropped
}

// unshift puts msgs back in front of the queued messages, oldest first.
// When they do not all fit the oldest entries are dropped.
func (q *offlineQueue) unshift(msgs []pendingMsg) {
	newer, dropped := q.drain()
	for _, m := range msgs {
		q.push(m)
	}
	for _, m := range newer {
		q.push(m)
	}
	q.dropped += dropped
}

func (q *offlineQueue) len() int {
	return q.count
}

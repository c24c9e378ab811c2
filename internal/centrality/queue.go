package centrality

// queue is a FIFO of node ids backed by a fixed buffer. A breadth-first
// search enqueues each node at most once, so a buffer sized to the node
// count never overflows and never needs to wrap.
type queue struct {
	buf  []int32
	head int
	tail int
}

func newQueue(capacity int) *queue {
	return &queue{buf: make([]int32, capacity)}
}

func (q *queue) push(v int32) {
	q.buf[q.tail] = v
	q.tail++
}

func (q *queue) pop() int32 {
	v := q.buf[q.head]
	q.head++
	return v
}

func (q *queue) empty() bool {
	return q.head == q.tail
}

func (q *queue) reset() {
	q.head, q.tail = 0, 0
}

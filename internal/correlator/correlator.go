// Package correlator pairs responses with requests of the same TCP stream.
package correlator

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Response is a resolved response record waiting for its request.
type Response struct {
	Status      string // empty when the dissector reported none
	Bytes       int
	ContentType string
	BodyJSON    string // single-line JSON rendering of the body
}

// Unclaimed describes a stream that still holds responses after pairing.
type Unclaimed struct {
	Stream    int64
	Responses int
}

// Correlator maps a stream index to a FIFO queue of pending responses.
//
// Responses leave a queue from the front, so pairing follows wire order within a
// connection. A Correlator is not safe for concurrent use: it is filled completely
// by the response phase before the request phase drains it.
type Correlator struct {
	queues  map[int64][]Response
	pending *roaring.Bitmap // streams with a non-empty queue
	total   int
}

// New creates an empty correlator.
func New() *Correlator {
	return &Correlator{
		queues:  make(map[int64][]Response),
		pending: roaring.New(),
	}
}

// Enqueue appends r to the tail of the stream's queue.
func (c *Correlator) Enqueue(stream int64, r Response) {
	c.queues[stream] = append(c.queues[stream], r)
	c.total++
	if inBitmapRange(stream) {
		c.pending.Add(uint32(stream))
	}
}

// Pop removes and returns the oldest pending response of the stream.
// Each response is returned at most once.
func (c *Correlator) Pop(stream int64) (Response, bool) {
	q := c.queues[stream]
	if len(q) == 0 {
		return Response{}, false
	}

	head := q[0]
	q[0] = Response{}
	q = q[1:]
	c.total--

	if len(q) == 0 {
		delete(c.queues, stream)
		if inBitmapRange(stream) {
			c.pending.Remove(uint32(stream))
		}
	} else {
		c.queues[stream] = q
	}
	return head, true
}

// Pending returns the number of responses queued for the stream.
func (c *Correlator) Pending(stream int64) int {
	return len(c.queues[stream])
}

// Len returns the number of responses queued across all streams.
func (c *Correlator) Len() int {
	return c.total
}

// Leftover lists streams that still hold responses, in ascending stream order.
func (c *Correlator) Leftover() []Unclaimed {
	out := make([]Unclaimed, 0, len(c.queues))
	it := c.pending.Iterator()
	for it.HasNext() {
		s := int64(it.Next())
		out = append(out, Unclaimed{Stream: s, Responses: len(c.queues[s])})
	}
	// tshark stream indexes fit in uint32; anything else is listed from the map.
	extra := false
	for s, q := range c.queues {
		if !inBitmapRange(s) {
			out = append(out, Unclaimed{Stream: s, Responses: len(q)})
			extra = true
		}
	}
	if extra {
		slices.SortFunc(out, func(a, b Unclaimed) int { return cmp.Compare(a.Stream, b.Stream) })
	}
	return out
}

func inBitmapRange(stream int64) bool {
	return stream >= 0 && stream <= int64(^uint32(0))
}

// ParseStream parses a stream index column. Surrounding whitespace is ignored.
func ParseStream(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

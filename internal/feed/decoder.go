// Package feed turns the producer's raw byte stream into validated,
// typed market data updates.
package feed

import "bytes"

// Decoder reassembles newline-delimited messages from arbitrarily
// fragmented byte chunks. One Decoder belongs to one connection and is not
// safe for concurrent use; the per-connection read loop is its only caller.
type Decoder struct {
	residual []byte
}

// NewDecoder returns a Decoder with an empty residual buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the residual buffer and returns every complete
// newline-terminated message, in arrival order. The trailing fragment after
// the last newline (possibly empty) is carried forward to the next call.
// Returned slices are copies and stay valid after subsequent Feed calls.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}
	d.residual = append(d.residual, chunk...)

	var msgs [][]byte
	for {
		i := bytes.IndexByte(d.residual, '\n')
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, d.residual[:i])
		msgs = append(msgs, line)
		d.residual = d.residual[i+1:]
	}

	// Reclaim the backing array once everything buffered has been emitted,
	// so a long-lived connection does not pin old chunks.
	if len(d.residual) == 0 {
		d.residual = nil
	}
	return msgs
}

// Pending reports how many bytes of an incomplete message are buffered.
func (d *Decoder) Pending() int {
	return len(d.residual)
}

// Reset discards the residual buffer. Called when the connection closes:
// a trailing partial message can never be validated and is dropped.
func (d *Decoder) Reset() {
	d.residual = nil
}

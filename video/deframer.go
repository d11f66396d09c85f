package video

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// PrefixSize is the width of the length prefix in front of every payload.
	PrefixSize = 8

	DefaultMaxPayload = 32 << 20
)

// byteOrder matches the camera server, which packs the prefix in host order on
// little-endian machines.
var byteOrder = binary.LittleEndian

// Deframer splits a camera stream into length-delimited payloads.
// MaxPayload of zero accepts any prefix.
type Deframer struct {
	MaxPayload uint64

	prefix [PrefixSize]byte
}

func NewDeframer(maxPayload uint64) *Deframer {
	return &Deframer{MaxPayload: maxPayload}
}

// NextPayload reads one complete payload from r. Short reads are accumulated
// until the prefix and payload are complete; a source that runs dry first
// yields ErrStreamEnded and no partial payload.
func (d *Deframer) NextPayload(r io.Reader) ([]byte, error) {
	if _, err := io.ReadFull(r, d.prefix[:]); err != nil {
		return nil, streamEnded("prefix", err)
	}
	size := byteOrder.Uint64(d.prefix[:])
	if d.MaxPayload > 0 && size > d.MaxPayload {
		return nil, fmt.Errorf("%w: %w: %d > %d", ErrStreamEnded, ErrPayloadTooLarge, size, d.MaxPayload)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, streamEnded("payload", err)
	}
	return payload, nil
}

func streamEnded(part string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: peer closed during %s", ErrStreamEnded, part)
	}
	return fmt.Errorf("%w: reading %s: %w", ErrStreamEnded, part, err)
}

// WriteFrame writes payload to w in the camera wire format.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [PrefixSize]byte
	byteOrder.PutUint64(prefix[:], uint64(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

package video

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func encodeFrames(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range payloads {
		if err := WriteFrame(&buf, p); err != nil {
			t.Fatalf("WriteFrame() failed: %v", err)
		}
	}
	return buf.Bytes()
}

// chunkReader returns at most n bytes per Read.
type chunkReader struct {
	data []byte
	n    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(r.n, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestDeframerYieldsPayloadsInOrderRegardlessOfChunking(t *testing.T) {
	payloads := [][]byte{
		[]byte("first"),
		{},
		bytes.Repeat([]byte{0xAB}, 10_000),
		[]byte("last"),
	}
	stream := encodeFrames(t, payloads...)

	readers := map[string]func() io.Reader{
		"whole":    func() io.Reader { return bytes.NewReader(stream) },
		"one-byte": func() io.Reader { return iotest.OneByteReader(bytes.NewReader(stream)) },
		"half":     func() io.Reader { return iotest.HalfReader(bytes.NewReader(stream)) },
		"chunk-3":  func() io.Reader { return &chunkReader{data: stream, n: 3} },
		"chunk-4k": func() io.Reader { return &chunkReader{data: stream, n: 4096} },
	}
	for name, newReader := range readers {
		t.Run(name, func(t *testing.T) {
			r := newReader()
			d := NewDeframer(0)
			for i, want := range payloads {
				got, err := d.NextPayload(r)
				if err != nil {
					t.Fatalf("payload %d: NextPayload() failed: %v", i, err)
				}
				if !bytes.Equal(got, want) {
					t.Fatalf("payload %d: got %d bytes, want %d", i, len(got), len(want))
				}
			}
			if _, err := d.NextPayload(r); !errors.Is(err, ErrStreamEnded) {
				t.Errorf("after last payload: err = %v, want ErrStreamEnded", err)
			}
		})
	}
}

func TestDeframerTruncatedStream(t *testing.T) {
	full := encodeFrames(t, []byte("hello world"))
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"partial prefix", full[:5]},
		{"prefix only", full[:PrefixSize]},
		{"partial payload", full[:len(full)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDeframer(0).NextPayload(&chunkReader{data: tt.data, n: 2})
			if !errors.Is(err, ErrStreamEnded) {
				t.Fatalf("err = %v, want ErrStreamEnded", err)
			}
			if got != nil {
				t.Errorf("got partial payload of %d bytes", len(got))
			}
		})
	}
}

func TestDeframerRejectsOversizedPrefix(t *testing.T) {
	stream := encodeFrames(t, make([]byte, 64))
	_, err := NewDeframer(16).NextPayload(bytes.NewReader(stream))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	if !errors.Is(err, ErrStreamEnded) {
		t.Errorf("oversized payload must end the stream, got %v", err)
	}
}

func TestDeframerReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewDeframer(0).NextPayload(iotest.ErrReader(boom))
	if !errors.Is(err, ErrStreamEnded) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrStreamEnded wrapping boom", err)
	}
}

package video

import "errors"

var (
	ErrConnectTimeout  = errors.New("connect timeout")
	ErrConnectFailure  = errors.New("connect failure")
	ErrSuperseded      = errors.New("connect superseded")
	ErrStreamEnded     = errors.New("stream ended")
	ErrPayloadTooLarge = errors.New("payload exceeds limit")
	ErrDecodeFailure   = errors.New("decode failure")
)

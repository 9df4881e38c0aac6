package pipeline

import "errors"

// ErrStreamFailed marks a mid-stream failure of the chunk source. It is not
// recoverable inside the pipeline; the caller decides whether to retry the
// whole file.
var ErrStreamFailed = errors.New("telemetry stream failed")

// ErrDeliveryFailed wraps a downstream delivery error so callers can tell it
// apart from parse-side failures. The underlying error is preserved
// unmodified via errors.Unwrap.
var ErrDeliveryFailed = errors.New("event delivery failed")

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

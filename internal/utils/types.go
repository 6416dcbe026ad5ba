package utils

// StreamJob describes one download for the scheduler. StreamID names the
// stream for default output paths; LengthHint is 0 when the size is unknown
// upstream.
type StreamJob struct {
	ID               string
	URL              string
	StreamID         string
	OutputPath       string
	LengthHint       uint64
	HTTPClientConfig HTTPClientConfig
}

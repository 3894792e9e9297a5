package recovery

import "fmt"

// StrictStrategy fails the document on the first anomaly. Useful when the
// caller wants malformed RTF rejected instead of skipped.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(ctx Context, err error, location Location) Action {
	return ActionFail
}

// LenientStrategy records anomalies and continues. This matches the scan
// engine's default posture: malformed RTF is skipped past, never fatal.
// Not safe for concurrent use; give each scan its own instance.
type LenientStrategy struct {
	// MaxErrors caps the Errors slice so a malicious document cannot grow
	// it without bound. Zero means DefaultMaxErrors.
	MaxErrors int
	Errors    []error

	dropped int
}

const DefaultMaxErrors = 64

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(ctx Context, err error, location Location) Action {
	max := s.MaxErrors
	if max == 0 {
		max = DefaultMaxErrors
	}
	if len(s.Errors) < max {
		s.Errors = append(s.Errors, fmt.Errorf("[%s] offset %d depth %d: %w",
			location.Component, location.ByteOffset, location.GroupDepth, err))
	} else {
		s.dropped++
	}
	return ActionWarn
}

// Dropped reports how many anomalies were discarded after Errors filled up.
func (s *LenientStrategy) Dropped() int { return s.dropped }

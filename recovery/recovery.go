// Package recovery decides how the scanner reacts to malformed input.
package recovery

type Strategy interface {
	OnError(ctx Context, err error, location Location) Action
}

// Location pins an anomaly to a position in the input document.
type Location struct {
	ByteOffset int64
	GroupDepth int64
	Component  string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)

// Context is satisfied by context.Context.
type Context interface{ Done() <-chan struct{} }

// Package sink defines the hierarchical state store the mower projection is
// written into, plus the implementations shipped with the daemon.
package sink

type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
)

// Shape declares what lives at a path when it is first created.
type Shape struct {
	Kind     ValueKind
	Writable bool
	// initial value for writable paths (e.g. default park time)
	Default any
}

// ExternalWriteHandler receives writes made by users of the sink, never
// writes made by the daemon itself.
type ExternalWriteHandler func(path string, value any)

type Sink interface {
	// EnsurePath creates the path with the declared shape if it does not
	// already exist; calling it again for an existing path is a no-op.
	EnsurePath(path string, shape Shape) error
	WriteValue(path string, value any) error
	ReadValue(path string) (any, bool)
	DeletePath(path string, recursive bool) error
	SubscribeExternal(handler ExternalWriteHandler)
}

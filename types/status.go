package types

// BlockStatus tracks one block through its render lifecycle.
// Transitions: pending → loading → {partial}* → ready → complete.
type BlockStatus string

// Block status constants. The values double as the DOM
// data-gen-status attribute values.
const (
	BlockPending  BlockStatus = "pending"
	BlockLoading  BlockStatus = "loading"
	BlockPartial  BlockStatus = "partial"
	BlockReady    BlockStatus = "ready"
	BlockComplete BlockStatus = "complete"
)

// ImageStatus tracks one generated image.
type ImageStatus string

// Image status constants.
const (
	ImageGenerating ImageStatus = "generating"
	ImageReady      ImageStatus = "ready"
)

// SessionStatus is the overall state of one generation session.
// Transitions are monotonic: initializing → generating → {complete|error}.
type SessionStatus string

// Session status constants.
const (
	SessionInitializing SessionStatus = "initializing"
	SessionGenerating   SessionStatus = "generating"
	SessionComplete     SessionStatus = "complete"
	SessionError        SessionStatus = "error"
)

// IsTerminal returns true once no further events may be processed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionComplete || s == SessionError
}

package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pagecraft-io/pagestream/types"
)

// Snapshot is the persisted form of a session.
// Blocks and images serialize as association lists — [[id, info], ...] —
// preserving layout order through the round trip.
type Snapshot struct {
	PageID    string              `json:"pageId"`
	Blocks    []BlockEntry        `json:"blocks"`
	Images    []ImageEntry        `json:"images"`
	Status    types.SessionStatus `json:"status"`
	Timestamp int64               `json:"timestamp"` // unix milliseconds
}

// BlockEntry is one [id, info] pair in the persisted block list.
type BlockEntry struct {
	ID   string
	Info BlockInfo
}

// MarshalJSON encodes the entry as a two-element array.
func (e BlockEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Info})
}

// UnmarshalJSON decodes a two-element [id, info] array.
func (e *BlockEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("block entry: %w", err)
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("block entry id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Info); err != nil {
		return fmt.Errorf("block entry info: %w", err)
	}
	return nil
}

// ImageEntry is one [id, info] pair in the persisted image list.
type ImageEntry struct {
	ID   string
	Info ImageInfo
}

// MarshalJSON encodes the entry as a two-element array.
func (e ImageEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Info})
}

// UnmarshalJSON decodes a two-element [id, info] array.
func (e *ImageEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("image entry: %w", err)
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("image entry id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Info); err != nil {
		return fmt.Errorf("image entry info: %w", err)
	}
	return nil
}

// Snapshot captures the session's mutable fields at the given time.
func (s *State) Snapshot(now time.Time) *Snapshot {
	return &Snapshot{
		PageID:    s.PageID,
		Blocks:    s.Blocks(),
		Images:    s.Images(),
		Status:    s.Status,
		Timestamp: now.UnixMilli(),
	}
}

// RestoreState rebuilds a State from a snapshot.
// The reconnect counter starts at zero: restoring constructs a new session.
func RestoreState(snap *Snapshot, startTime time.Time) *State {
	state := NewState(snap.PageID, startTime)
	state.Status = snap.Status
	for _, e := range snap.Blocks {
		info := e.Info
		state.blocks[e.ID] = &info
		state.blockOrder = append(state.blockOrder, e.ID)
	}
	for _, e := range snap.Images {
		info := e.Info
		state.images[e.ID] = &info
		state.imageOrder = append(state.imageOrder, e.ID)
	}
	return state
}

// Package session holds the in-memory record of one page-generation
// session and its persistence to a session-scoped store.
//
// A State is owned exclusively by the renderer for the session's lifetime
// and mutated only from the render goroutine, so it does no locking.
package session

import (
	"time"

	"github.com/pagecraft-io/pagestream/types"
)

// MaxReconnectAttempts bounds automatic reconnection after transport drops.
// Exceeding it forces the session into the error state with no further
// retries. The counter is reset only by constructing a new session.
const MaxReconnectAttempts = 3

// BlockInfo is the tracked state of one block.
type BlockInfo struct {
	Type   string            `json:"type"`
	Status types.BlockStatus `json:"status"`
}

// ImageInfo is the tracked state of one generated image.
type ImageInfo struct {
	BlockID string            `json:"blockId"`
	Status  types.ImageStatus `json:"status"`
	URL     string            `json:"url"`
}

// State is the in-memory record of a generation session.
// Block and image iteration order is insertion order (= layout order).
type State struct {
	PageID            string
	Status            types.SessionStatus
	StartTime         time.Time
	ReconnectAttempts int

	blocks     map[string]*BlockInfo
	blockOrder []string
	images     map[string]*ImageInfo
	imageOrder []string
}

// NewState creates a fresh session for the given page.
func NewState(pageID string, startTime time.Time) *State {
	return &State{
		PageID:    pageID,
		Status:    types.SessionInitializing,
		StartTime: startTime,
		blocks:    make(map[string]*BlockInfo),
		images:    make(map[string]*ImageInfo),
	}
}

// RegisterBlock records a block if not already present and returns its info.
func (s *State) RegisterBlock(blockID, blockType string) *BlockInfo {
	if info, ok := s.blocks[blockID]; ok {
		if blockType != "" && info.Type == "" {
			info.Type = blockType
		}
		return info
	}
	info := &BlockInfo{Type: blockType, Status: types.BlockPending}
	s.blocks[blockID] = info
	s.blockOrder = append(s.blockOrder, blockID)
	return info
}

// Block returns the tracked info for a block id.
func (s *State) Block(blockID string) (*BlockInfo, bool) {
	info, ok := s.blocks[blockID]
	return info, ok
}

// SetBlockStatus updates a block's status, registering it if unknown.
func (s *State) SetBlockStatus(blockID string, status types.BlockStatus) {
	s.RegisterBlock(blockID, "").Status = status
}

// BlockCount returns the number of tracked blocks.
func (s *State) BlockCount() int { return len(s.blockOrder) }

// Blocks returns block entries in insertion order.
func (s *State) Blocks() []BlockEntry {
	entries := make([]BlockEntry, 0, len(s.blockOrder))
	for _, id := range s.blockOrder {
		entries = append(entries, BlockEntry{ID: id, Info: *s.blocks[id]})
	}
	return entries
}

// RegisterImage records an image placeholder owned by a block.
func (s *State) RegisterImage(imageID, blockID string) *ImageInfo {
	if info, ok := s.images[imageID]; ok {
		return info
	}
	info := &ImageInfo{BlockID: blockID, Status: types.ImageGenerating}
	s.images[imageID] = info
	s.imageOrder = append(s.imageOrder, imageID)
	return info
}

// SetImageReady marks an image ready and stores its final URL.
// An unregistered id is registered on the fly; the server may emit
// image-ready without a preceding placeholder event.
func (s *State) SetImageReady(imageID, url string) *ImageInfo {
	info := s.RegisterImage(imageID, "")
	info.Status = types.ImageReady
	info.URL = url
	return info
}

// Image returns the tracked info for an image id.
func (s *State) Image(imageID string) (*ImageInfo, bool) {
	info, ok := s.images[imageID]
	return info, ok
}

// Images returns image entries in insertion order.
func (s *State) Images() []ImageEntry {
	entries := make([]ImageEntry, 0, len(s.imageOrder))
	for _, id := range s.imageOrder {
		entries = append(entries, ImageEntry{ID: id, Info: *s.images[id]})
	}
	return entries
}

// CanReconnect reports whether another reconnect attempt is allowed.
func (s *State) CanReconnect() bool {
	return s.ReconnectAttempts < MaxReconnectAttempts
}

// IncReconnect increments the bounded reconnect counter and returns it.
func (s *State) IncReconnect() int {
	s.ReconnectAttempts++
	return s.ReconnectAttempts
}

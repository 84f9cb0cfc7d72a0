package render

import (
	"sync"
	"sync/atomic"
)

// Frame is one NV21 picture split into its luma and interleaved chroma
// planes. Chroma holds V at even and U at odd offsets.
type Frame struct {
	Luma      []byte
	Chroma    []byte
	Width     int
	Height    int
	PTSMicros int64
}

// Validate checks the plane sizes against the frame dimensions.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return ErrNoFrameSize
	}
	if len(f.Luma) != f.Width*f.Height || len(f.Chroma) != 2*(f.Width/2)*(f.Height/2) {
		return ErrFrameSize
	}
	return nil
}

// FrameSlot is a single-slot mailbox holding the latest frame. Put
// overwrites; frames are never queued. The same mutex serializes readers,
// so a reader inside View always sees one whole frame.
type FrameSlot struct {
	mu       sync.Mutex
	frame    *Frame
	unseen   bool
	puts     atomic.Uint64
	replaced atomic.Uint64
}

// Put stores f and returns the frame it replaced, which the slot no longer
// references.
func (s *FrameSlot) Put(f *Frame) *Frame {
	s.mu.Lock()
	prev := s.frame
	if s.unseen {
		s.replaced.Add(1)
	}
	s.frame = f
	s.unseen = true
	s.mu.Unlock()

	s.puts.Add(1)
	return prev
}

// View calls fn with the latest frame while holding the slot lock. fn must
// not retain the frame. fresh reports whether the frame has not been viewed
// before. View does nothing when the slot is empty.
func (s *FrameSlot) View(fn func(f *Frame, fresh bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return false
	}
	fresh := s.unseen
	s.unseen = false
	fn(s.frame, fresh)
	return true
}

// Inspect calls fn with the latest frame under the slot lock without
// marking it viewed.
func (s *FrameSlot) Inspect(fn func(f *Frame)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return false
	}
	fn(s.frame)
	return true
}

// Puts returns how many frames were stored.
func (s *FrameSlot) Puts() uint64 {
	return s.puts.Load()
}

// Replaced returns how many frames were overwritten before being viewed.
func (s *FrameSlot) Replaced() uint64 {
	return s.replaced.Load()
}

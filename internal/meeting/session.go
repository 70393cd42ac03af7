package meeting

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const leavePrompt = "You are in a live session. Leave the meeting?"

var ErrFrameDetached = errors.New("video frame is not attached")

// FrameControl posts messages to the embedded video frame.
type FrameControl interface {
	Post(ctx context.Context, msg Message) error
}

type State struct {
	MeetingLink  string `json:"meetingLink"`
	RoomID       string `json:"roomId"`
	SessionID    string `json:"sessionId"`
	TrainerName  string `json:"trainerName,omitempty"`
	VideoEnabled bool   `json:"videoEnabled"`
	AudioEnabled bool   `json:"audioEnabled"`
	Loaded       bool   `json:"loaded"`
}

// Session is the controller for one open meeting view. The link and the owner
// never change after construction; toggles only touch local flags and notify
// the frame.
type Session struct {
	mu       sync.Mutex
	ownerID  string
	state    State
	frame    FrameControl
	removers []func()

	// generation changes on every mount and unmount. Listeners registered by
	// an older mount do nothing.
	generation uint64
	logger     *zap.Logger
}

func NewSession(link, sessionID, trainerName, ownerID string, logger *zap.Logger) (*Session, error) {
	roomID, err := ParseLink(link)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		state: State{
			MeetingLink:  strings.TrimSpace(link),
			RoomID:       roomID,
			SessionID:    sessionID,
			TrainerName:  strings.TrimSpace(trainerName),
			VideoEnabled: true,
			AudioEnabled: true,
		},
		ownerID: ownerID,
		logger:  logger.With(zap.String("session_id", sessionID), zap.String("room_id", roomID)),
	}, nil
}

func (s *Session) Owner() string {
	return s.ownerID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ToggleVideo(ctx context.Context) (bool, error) {
	return s.toggle(ctx, MessageToggleVideo)
}

func (s *Session) ToggleAudio(ctx context.Context) (bool, error) {
	return s.toggle(ctx, MessageToggleAudio)
}

// toggle flips the flag even when the post fails; the frame may ignore it.
func (s *Session) toggle(ctx context.Context, kind MessageType) (bool, error) {
	s.mu.Lock()
	var enabled bool
	switch kind {
	case MessageToggleVideo:
		s.state.VideoEnabled = !s.state.VideoEnabled
		enabled = s.state.VideoEnabled
	case MessageToggleAudio:
		s.state.AudioEnabled = !s.state.AudioEnabled
		enabled = s.state.AudioEnabled
	}
	frame := s.frame
	s.mu.Unlock()

	if frame == nil {
		return enabled, ErrFrameDetached
	}
	return enabled, frame.Post(ctx, ToggleMessage(kind, enabled))
}

// Mount attaches the frame and registers the message listener and the
// unload guard on target. Mounting an already mounted session first
// unmounts it. The returned generation identifies this mount for UnmountIf.
func (s *Session) Mount(target EventTarget, frame FrameControl) uint64 {
	s.mu.Lock()
	previous := s.detachLocked()
	gen := s.generation
	s.frame = frame
	s.removers = []func(){
		target.Listen(EventMessage, s.messageListener(gen)),
		target.Listen(EventBeforeUnload, s.unloadGuard(gen)),
	}
	s.mu.Unlock()

	for _, remove := range previous {
		remove()
	}
	return gen
}

// Unmount removes both listeners and detaches the frame. Safe to call twice.
func (s *Session) Unmount() {
	s.mu.Lock()
	removers := s.detachLocked()
	s.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// UnmountIf unmounts only while gen is still the current mount and reports
// whether it did.
func (s *Session) UnmountIf(gen uint64) bool {
	s.mu.Lock()
	if !s.mountedLocked(gen) {
		s.mu.Unlock()
		return false
	}
	removers := s.detachLocked()
	s.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	return true
}

func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removers != nil
}

func (s *Session) detachLocked() []func() {
	removers := s.removers
	s.removers = nil
	s.frame = nil
	s.generation++
	return removers
}

func (s *Session) mountedLocked(gen uint64) bool {
	return s.removers != nil && s.generation == gen
}

func (s *Session) messageListener(gen uint64) Listener {
	return func(_ context.Context, ev Event) *Message {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.mountedLocked(gen) {
			return nil
		}
		switch ev.Message.Type {
		case MessageZegoEvent:
			s.logger.Debug("frame event", zap.ByteString("event", ev.Message.Event))
		case MessageFrameLoaded:
			s.state.Loaded = true
		}
		return nil
	}
}

func (s *Session) unloadGuard(gen uint64) Listener {
	return func(_ context.Context, _ Event) *Message {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.mountedLocked(gen) {
			return nil
		}
		return &Message{Type: MessageConfirmLeave, Prompt: leavePrompt}
	}
}

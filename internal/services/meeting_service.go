package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freakyfit/freakyfit-api/internal/meeting"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("meeting session not found")

type MeetingLink struct {
	Link   string `json:"link"`
	RoomID string `json:"roomId"`
}

type VideoCredentials struct {
	AppID  uint32 `json:"appID"`
	RoomID string `json:"roomID"`
	UserID string `json:"userID"`
	Token  string `json:"token"`
}

type MeetingSessionView struct {
	Session     meeting.State     `json:"session"`
	Credentials *VideoCredentials `json:"credentials,omitempty"`
}

type OpenSessionInput struct {
	Link        string
	SessionID   string
	TrainerName string
	UserID      string
}

type ToggleResult struct {
	Session   meeting.State `json:"session"`
	Delivered bool          `json:"delivered"`
}

type MeetingService struct {
	publicURL string
	registry  *meeting.Registry
	tokens    *ZegoTokenService
	logger    *zap.Logger
	now       func() time.Time
}

func NewMeetingService(publicURL string, registry *meeting.Registry, tokens *ZegoTokenService, logger *zap.Logger) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{
		publicURL: publicURL,
		registry:  registry,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *MeetingService) CreateLink(userID string) (*MeetingLink, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	link, roomID, err := meeting.GenerateLink(s.publicURL, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("meeting link created", zap.String("user_id", userID), zap.String("room_id", roomID))
	return &MeetingLink{Link: link, RoomID: roomID}, nil
}

// OpenSession registers a session for link owned by input.UserID. Missing
// video credentials do not block the session; the view simply carries no
// credentials.
func (s *MeetingService) OpenSession(_ context.Context, input OpenSessionInput) (*MeetingSessionView, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session, err := meeting.NewSession(input.Link, sessionID, input.TrainerName, userID, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Open(session); err != nil {
		if errors.Is(err, meeting.ErrSessionOwned) {
			s.logger.Warn("meeting session id taken", zap.String("session_id", sessionID), zap.String("user_id", userID))
			return nil, ErrForbidden
		}
		return nil, err
	}

	state := session.State()
	view := &MeetingSessionView{Session: state}

	token, err := s.tokens.Generate(userID, "")
	switch {
	case err == nil:
		view.Credentials = &VideoCredentials{
			AppID:  s.tokens.AppID(),
			RoomID: state.RoomID,
			UserID: userID,
			Token:  token,
		}
	case errors.Is(err, ErrVideoUnavailable):
		s.logger.Warn("meeting opened without video credentials", zap.String("session_id", sessionID))
	default:
		return nil, err
	}
	return view, nil
}

// Session returns the open session sessionID when userID owns it.
func (s *MeetingService) Session(userID, sessionID string) (*meeting.Session, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Owner() != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *MeetingService) ToggleVideo(ctx context.Context, userID, sessionID string) (*ToggleResult, error) {
	return s.toggle(ctx, userID, sessionID, (*meeting.Session).ToggleVideo)
}

func (s *MeetingService) ToggleAudio(ctx context.Context, userID, sessionID string) (*ToggleResult, error) {
	return s.toggle(ctx, userID, sessionID, (*meeting.Session).ToggleAudio)
}

// toggle reports a frame that could not be reached as undelivered rather
// than as a failure; the local flag has flipped either way.
func (s *MeetingService) toggle(
	ctx context.Context,
	userID string,
	sessionID string,
	fn func(*meeting.Session, context.Context) (bool, error),
) (*ToggleResult, error) {
	session, err := s.Session(userID, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = fn(session, ctx)
	if err != nil {
		s.logger.Debug("toggle not delivered", zap.String("session_id", sessionID), zap.Error(err))
	}
	return &ToggleResult{Session: session.State(), Delivered: err == nil}, nil
}

func (s *MeetingService) Registry() *meeting.Registry {
	return s.registry
}

package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/freakyfit/freakyfit-api/internal/meeting"
	"github.com/freakyfit/freakyfit-api/internal/middleware"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/freakyfit/freakyfit-api/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	errMissingMeetingLink   = "Meeting link is missing."
	errMalformedMeetingLink = "Meeting link is invalid."
	recoveryNavigateBack    = "navigate_back"
)

type MeetingHandler struct {
	service   meetingApplicationService
	jwtSecret string
	logger    *zap.Logger
}

type meetingApplicationService interface {
	CreateLink(userID string) (*services.MeetingLink, error)
	OpenSession(ctx context.Context, input services.OpenSessionInput) (*services.MeetingSessionView, error)
	ToggleVideo(ctx context.Context, userID, sessionID string) (*services.ToggleResult, error)
	ToggleAudio(ctx context.Context, userID, sessionID string) (*services.ToggleResult, error)
	Session(userID, sessionID string) (*meeting.Session, error)
	Registry() *meeting.Registry
}

func NewMeetingHandler(service *services.MeetingService, jwtSecret string, logger *zap.Logger) *MeetingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingHandler{service: service, jwtSecret: jwtSecret, logger: logger}
}

func (h *MeetingHandler) CreateLink(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	link, err := h.service.CreateLink(userID)
	if err != nil {
		return mapMeetingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (h *MeetingHandler) OpenSession(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	link := strings.TrimSpace(c.Query("link"))
	if link == "" {
		return meetingLinkError(c, errMissingMeetingLink)
	}

	view, err := h.service.OpenSession(c.Context(), services.OpenSessionInput{
		Link:        link,
		SessionID:   c.Query("sessionId"),
		TrainerName: c.Query("trainerName"),
		UserID:      userID,
	})
	if err != nil {
		return mapMeetingError(c, err)
	}
	return c.JSON(view)
}

func (h *MeetingHandler) ToggleVideo(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	result, err := h.service.ToggleVideo(c.Context(), userID, c.Params("sessionId"))
	if err != nil {
		return mapMeetingError(c, err)
	}
	return c.JSON(result)
}

func (h *MeetingHandler) ToggleAudio(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	result, err := h.service.ToggleAudio(c.Context(), userID, c.Params("sessionId"))
	if err != nil {
		return mapMeetingError(c, err)
	}
	return c.JSON(result)
}

// WebSocketAuth accepts the token as a query parameter because browsers
// cannot set headers on a websocket handshake.
func (h *MeetingHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if _, err := h.service.Session(claims.UserID, sessionID); err != nil {
		return mapMeetingError(c, err)
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("session_id", sessionID)
	return c.Next()
}

func (h *MeetingHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	sessionID, _ := conn.Locals("session_id").(string)
	session, err := h.service.Session(userID, sessionID)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := meeting.NewClient(conn, h.logger.With(zap.String("session_id", sessionID)))
	client.Serve(context.Background(), h.service.Registry(), session)
}

func (h *MeetingHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		tokenString, _ = middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func meetingLinkError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":    message,
		"recovery": fiber.Map{"action": recoveryNavigateBack},
	})
}

func mapMeetingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, meeting.ErrMalformedLink):
		return meetingLinkError(c, errMalformedMeetingLink)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Meeting session belongs to another user"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Meeting session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process meeting request"})
	}
}

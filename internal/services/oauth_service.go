package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultUserRole   = "user"
)

var (
	ErrOAuthDisabled = errors.New("google sign-in is not configured")
	ErrOAuthExchange = errors.New("google sign-in failed")
)

type googleUserStore interface {
	UpsertGoogleUser(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type OAuthService struct {
	config      *oauth2.Config
	users       googleUserStore
	jwtSecret   string
	userInfoURL string
	logger      *zap.Logger
}

func NewOAuthService(
	clientID, clientSecret, redirectURL, jwtSecret string,
	users googleUserStore,
	logger *zap.Logger,
) *OAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		users:       users,
		jwtSecret:   jwtSecret,
		userInfoURL: googleUserInfoURL,
		logger:      logger,
	}
}

func (s *OAuthService) Enabled() bool {
	return s.config.ClientID != "" && s.config.ClientSecret != "" && s.config.RedirectURL != ""
}

func NewOAuthState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *OAuthService) AuthCodeURL(state string) (string, error) {
	if !s.Enabled() {
		return "", ErrOAuthDisabled
	}
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// CompleteSignIn exchanges code for a Google profile, stores the user and
// returns an API token for them.
func (s *OAuthService) CompleteSignIn(ctx context.Context, code string) (string, *models.User, error) {
	if !s.Enabled() {
		return "", nil, ErrOAuthDisabled
	}
	if strings.TrimSpace(code) == "" {
		return "", nil, ErrInvalidInput
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("google code exchange", zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	profile, err := s.fetchProfile(ctx, s.config.Client(ctx, token))
	if err != nil {
		s.logger.Warn("google profile fetch", zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	if profile.ID == "" || profile.Email == "" {
		return "", nil, fmt.Errorf("%w: profile is missing id or email", ErrOAuthExchange)
	}

	user := &models.User{
		GoogleID: profile.ID,
		Email:    strings.ToLower(profile.Email),
		Name:     profile.Name,
	}
	if profile.Picture != "" {
		user.AvatarURL = &profile.Picture
	}
	if err := s.users.UpsertGoogleUser(ctx, user); err != nil {
		return "", nil, err
	}

	apiToken, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), defaultUserRole, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("user signed in", zap.Int64("user_id", user.ID))
	return apiToken, user, nil
}

func (s *OAuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *OAuthService) fetchProfile(ctx context.Context, client *http.Client) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"soxmonitor/internal/domain/auth"
	platformerrors "soxmonitor/internal/platform/errors"
	"soxmonitor/internal/platform/logging"
	httptransport "soxmonitor/internal/transport/http"
)

// Service exposes login, identity and logout over HTTP.
type Service struct {
	authority *auth.Manager
	logger    *logging.Logger
}

// NewService creates the auth HTTP service.
func NewService(authority *auth.Manager, logger *logging.Logger) (*Service, error) {
	if authority == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "authapi.new", "session authority is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "authapi.new", "logger is required")
	}
	return &Service{
		authority: authority,
		logger:    logger,
	}, nil
}

// Register wires the auth routes onto the engine. Login is open; the identity
// and logout routes resolve the bearer token first.
func (s *Service) Register(_ context.Context, engine *gin.Engine) error {
	group := engine.Group("/auth")
	group.POST("/login", s.handleLogin)

	secured := group.Group("")
	secured.Use(httptransport.RequireSession(s.authority))
	{
		secured.GET("/me", s.handleMe)
		secured.POST("/logout", s.handleLogout)
	}

	s.logger.InfoTag("HTTP", "auth routes registered")
	return nil
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Message     string `json:"message"`
}

func (s *Service) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		httptransport.RespondError(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	ctx := c.Request.Context()
	cred, err := s.authority.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.ErrorTag("AUTH", "authentication failed: %v", err)
		}
		httptransport.RespondError(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	meta := map[string]any{
		"ip":         c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	}
	sess, err := s.authority.IssueToken(ctx, cred, meta)
	if err != nil {
		s.logger.ErrorTag("AUTH", "token issuance failed for %q: %v", cred.Username, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.InfoTag("AUTH", "login successful for %q (role %s)", sess.Username, sess.Role)
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: sess.Token,
		TokenType:   "bearer",
		Username:    sess.Username,
		Role:        sess.Role,
		Message:     "Login successful!",
	})
}

type meResponse struct {
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenCreated string `json:"token_created"`
	TokenExpires string `json:"token_expires"`
}

func (s *Service) handleMe(c *gin.Context) {
	sess, ok := httptransport.SessionFromContext(c)
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, meResponse{
		Username:     sess.Username,
		Role:         sess.Role,
		TokenCreated: sess.IssuedAt.Format(time.RFC3339),
		TokenExpires: sess.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Service) handleLogout(c *gin.Context) {
	sess, ok := httptransport.SessionFromContext(c)
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err := s.authority.Logout(c.Request.Context(), sess.Token); err != nil {
		s.logger.ErrorTag("AUTH", "logout failed for %q: %v", sess.Username, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to end session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

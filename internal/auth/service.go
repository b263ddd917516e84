// Package auth signs admins in against the backend and keeps their sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pmcafe/kiosk/pkg/auth"
	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/cafeapi"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
)

const (
	defaultSessionTTL         = 24 * time.Hour
	invalidCredentialsMessage = "아이디 또는 비밀번호가 올바르지 않습니다"
	sessionExpiredMessage     = "로그인이 만료되었습니다"
)

// Service defines the behavior needed by the admin auth controller and middleware.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Authenticate(ctx context.Context, sessionID string) (session.Session, error)
	Verify(ctx context.Context, sessionID string) (models.AdminUser, error)
	Logout(ctx context.Context, sessionID string) error
	RevokeToken(ctx context.Context, token string)
}

type authAPI interface {
	Login(ctx context.Context, username, password string) (cafeapi.LoginResult, error)
	Verify(ctx context.Context) (models.AdminUser, error)
}

type sessionManager interface {
	Create(ctx context.Context, token string, user models.AdminUser, ttl time.Duration) (session.Session, error)
	Load(ctx context.Context, sessionID string) (session.Session, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeToken(ctx context.Context, token string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	API        authAPI
	Sessions   sessionManager
	SessionTTL time.Duration
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	api      authAPI
	sessions sessionManager
	ttl      time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("auth api is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	ttl := params.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{api: params.API, sessions: params.Sessions, ttl: ttl, logg: logg, now: now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return LoginResponse{}, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	res, err := s.api.Login(ctx, username, req.Password)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			return LoginResponse{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return LoginResponse{}, err
	}
	if res.AccessToken == "" {
		return LoginResponse{}, pkgerrors.New(pkgerrors.CodeDependency, "backend returned no access token")
	}

	ttl := auth.SessionTTL(res.AccessToken, s.now(), s.ttl)
	if ttl <= 0 {
		return LoginResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionExpiredMessage)
	}
	sess, err := s.sessions.Create(ctx, res.AccessToken, res.User, ttl)
	if err != nil {
		return LoginResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store admin session")
	}

	s.logg.Info(s.logg.WithAdmin(ctx, res.User.Username), "admin signed in")
	return LoginResponse{SessionID: sess.ID, User: sess.User, ExpiresAt: sess.ExpiresAt}, nil
}

// Authenticate loads a live session without calling the backend.
func (s *service) Authenticate(ctx context.Context, sessionID string) (session.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionExpiredMessage)
		}
		return session.Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin session")
	}
	return sess, nil
}

// Verify asks the backend whether the session's token is still accepted.
func (s *service) Verify(ctx context.Context, sessionID string) (models.AdminUser, error) {
	sess, err := s.Authenticate(ctx, sessionID)
	if err != nil {
		return models.AdminUser{}, err
	}
	user, err := s.api.Verify(cafeapi.WithToken(ctx, sess.Token))
	if err != nil {
		return models.AdminUser{}, err
	}
	return user, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	s.logg.Info(ctx, "admin signed out")
	return nil
}

// RevokeToken drops the session holding a token the backend rejected. It
// matches cafeapi.UnauthorizedHook.
func (s *service) RevokeToken(ctx context.Context, token string) {
	if err := s.sessions.RevokeToken(ctx, token); err != nil {
		s.logg.Error(ctx, "revoke rejected admin token", err)
		return
	}
	s.logg.Warn(ctx, "backend rejected admin token; session revoked")
}

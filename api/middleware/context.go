package middleware

import (
	"context"

	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/models"
)

type contextKey string

const ctxAdminSession contextKey = "admin_session"

// WithAdminSession stores the signed-in admin session on ctx.
func WithAdminSession(ctx context.Context, sess session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminSession, sess)
}

func AdminSessionFromContext(ctx context.Context) (session.Session, bool) {
	if ctx == nil {
		return session.Session{}, false
	}
	sess, ok := ctx.Value(ctxAdminSession).(session.Session)
	return sess, ok
}

// AdminFromContext returns the signed-in admin, if any.
func AdminFromContext(ctx context.Context) (models.AdminUser, bool) {
	sess, ok := AdminSessionFromContext(ctx)
	if !ok {
		return models.AdminUser{}, false
	}
	return sess.User, true
}

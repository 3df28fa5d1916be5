package middleware

import (
	"context"
	"net/http"
	"time"

	. "bboard/pkg/common"
	"bboard/pkg/logger"
	"bboard/pkg/sessions"
	"bboard/pkg/user"
)

const loginPath = "/auth/login"

type (
	IUserRepo interface {
		GetById(context.Context, int64) (*user.User, error)
	}
	ISessionManager interface {
		UserFromRequest(*http.Request) (*sessions.SessionUser, error)
	}
	Auth struct {
		UserRepo       IUserRepo
		SessionManager ISessionManager
	}
)

func NewAuthMiddleware(sm ISessionManager, ur IUserRepo) *Auth {
	return &Auth{
		UserRepo:       ur,
		SessionManager: sm,
	}
}

// Middleware puts the session user into the request context. Requests
// without a valid session pass through anonymous; RequireAuth decides
// which routes they may reach. The user record is re-read from the repo
// so a renamed user is seen with the current display name.
func (auth *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessUser, err := auth.SessionManager.UserFromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		repoCtx, repoCtxCancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer repoCtxCancel()
		u, err := auth.UserRepo.GetById(repoCtx, sessUser.Id)
		if err != nil {
			logger.Log(r.Context()).Errorf("auth: can't get the user from repo: %v", err)
			WriteMsg(w, "user not found", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), sessions.SessionKey, &sessions.SessionUser{
			Id:          u.Id,
			Username:    u.Username,
			DisplayName: u.DisplayName,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth gates a router behind a logged in session. Anonymous
// requests are sent to the login page, not rejected.
func (auth *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := sessions.GetAuthUser(r.Context()); err != nil {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

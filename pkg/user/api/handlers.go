package api

import (
	"context"
	"fmt"
	"net/http"

	"bboard/pkg/common"
	"bboard/pkg/logger"
	"bboard/pkg/sessions"
	"bboard/pkg/user"
)

const afterLoginPath = "/boards/free"

type (
	UserRepo interface {
		UserExists(string) bool
		GetByUsernameAndPass(string, string) (*user.User, error)
		Add(*user.User) (int64, error)
		UpdateDisplayName(context.Context, int64, string) error
	}

	SessionManager interface {
		Create(http.ResponseWriter, *sessions.SessionUser) error
		Destroy(http.ResponseWriter, *http.Request) error
		CleanupUserSessions(userId int64) error
	}

	UserHandler struct {
		Repo           UserRepo
		SessionManager SessionManager
	}
)

func NewUserHandler(r UserRepo, sm SessionManager) *UserHandler {
	return &UserHandler{
		Repo:           r,
		SessionManager: sm,
	}
}

func (uh *UserHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	pass := r.FormValue("pass")

	u, err := uh.Repo.GetByUsernameAndPass(username, pass)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get the user by username `%s` and password: %v",
			username, err)
		common.WriteMsg(w, "user not found", http.StatusNotFound)
		return
	}

	// Remove expired user sessions if there are any
	if err := uh.SessionManager.CleanupUserSessions(u.Id); err != nil {
		logger.Log(r.Context()).Errorf("user/handlers: can't cleanup sessions for user `%s`, %v", username, err)
		common.WriteMsg(w, "failed managing user sessions", http.StatusInternalServerError)
		return
	}

	uh.startSession(w, r, u)
}

func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	pass := r.FormValue("pass")
	displayName := r.FormValue("display_name")

	// Check if user already exists
	if uh.Repo.UserExists(username) {
		msg := fmt.Sprintf(`user "%s" already exists`, username)
		logger.Log(r.Context()).Error(msg)
		common.WriteMsg(w, msg, http.StatusConflict)
		return
	}

	salt := common.RandStringRunes(8)
	u := &user.User{
		Username:    username,
		DisplayName: displayName,
		Password:    common.HashPass(pass, salt),
		// Id is assigned by the store below
	}
	id, err := uh.Repo.Add(u)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add user `%s`: %v", username, err)
		common.WriteMsg(w, "can't add user", http.StatusInternalServerError)
		return
	}
	u.Id = id

	uh.startSession(w, r, u)
}

func (uh *UserHandler) LogOut(w http.ResponseWriter, r *http.Request) {
	if err := uh.SessionManager.Destroy(w, r); err != nil {
		logger.Log(r.Context()).Errorf("can't destroy session: %v", err)
		common.WriteMsg(w, "logout failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusFound)
}

func (uh *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	sessUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	common.WriteRespJSON(w, sessUser)
}

// UpdateProfile changes the display name shown next to the user's posts.
// The session is re-issued so the new name takes effect immediately.
func (uh *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	newName := r.FormValue("display_name")
	if err := uh.Repo.UpdateDisplayName(r.Context(), sessUser.Id, newName); err != nil {
		logger.Log(r.Context()).Errorf("can't update display name for user %d: %v", sessUser.Id, err)
		common.WriteMsg(w, "failed updating profile", http.StatusInternalServerError)
		return
	}

	uh.startSession(w, r, &user.User{
		Id:          sessUser.Id,
		Username:    sessUser.Username,
		DisplayName: newName,
	})
}

func (uh *UserHandler) startSession(w http.ResponseWriter, r *http.Request, u *user.User) {
	sessUser := &sessions.SessionUser{
		Id:          u.Id,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
	if err := uh.SessionManager.Create(w, sessUser); err != nil {
		logger.Log(r.Context()).Errorf("can't create session for user %d: %v", u.Id, err)
		common.WriteMsg(w, "user authentication failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, afterLoginPath, http.StatusFound)
}

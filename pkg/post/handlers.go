package post

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bboard/pkg/board"
	. "bboard/pkg/common"
	"bboard/pkg/logger"
	"bboard/pkg/sessions"
)

type IPostRepo interface {
	List(context.Context, string, ListQuery) (*ListPage, error)
	Add(context.Context, string, int64, string, string) (int64, error)
	GetAndCountView(context.Context, string, int64) (*Post, error)
	GetOwned(context.Context, string, int64, int64) (*Post, error)
	Update(context.Context, string, int64, int64, string, string) error
	Delete(context.Context, string, int64, int64) error
}

type PostHandler struct {
	PostRepo IPostRepo
}

func NewPostHandler(postRepo IPostRepo) *PostHandler {
	return &PostHandler{
		PostRepo: postRepo,
	}
}

// listPayload and the form/detail payloads below are the render contracts:
// everything a board template needs, shaped as JSON.
type listPayload struct {
	Board board.Board `json:"board"`
	*ListPage
}

type postPayload struct {
	Board board.Board `json:"board"`
	Post  *Post       `json:"post"`
}

type formPayload struct {
	Board  board.Board `json:"board"`
	Post   *Post       `json:"post"`
	Action string      `json:"action"`
}

func (ph *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}

	q := NewListQuery(r.URL.Query().Get("page"), r.URL.Query().Get("q"))
	page, err := ph.PostRepo.List(r.Context(), b.Type, q)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load posts for board %s: %v", b.Type, err)
		WriteMsg(w, "failed loading posts", http.StatusInternalServerError)
		return
	}

	WriteRespJSON(w, listPayload{Board: b, ListPage: page})
}

func (ph *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}

	WriteRespJSON(w, formPayload{Board: b, Post: nil, Action: "create"})
}

func (ph *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}
	author, ok := ph.authUser(w, r)
	if !ok {
		return
	}

	_, err := ph.PostRepo.Add(r.Context(), b.Type, author.Id,
		r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add post to board %s: %v", b.Type, err)
		WriteMsg(w, "failed adding post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, listPath(b.Type), http.StatusFound)
}

func (ph *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}

	p, err := ph.PostRepo.GetAndCountView(r.Context(), b.Type, id)
	if errors.Is(err, ErrPostNotFound) {
		WriteMsg(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get post %d from board %s: %v", id, b.Type, err)
		WriteMsg(w, "failed loading post", http.StatusInternalServerError)
		return
	}

	WriteRespJSON(w, postPayload{Board: b, Post: p})
}

func (ph *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	author, ok := ph.authUser(w, r)
	if !ok {
		return
	}

	p, err := ph.PostRepo.GetOwned(r.Context(), b.Type, id, author.Id)
	if errors.Is(err, ErrNotOwner) {
		WriteMsg(w, "no permission to edit this post", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get post %d for edit: %v", id, err)
		WriteMsg(w, "failed loading post", http.StatusInternalServerError)
		return
	}

	WriteRespJSON(w, formPayload{Board: b, Post: p, Action: "edit"})
}

func (ph *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	author, ok := ph.authUser(w, r)
	if !ok {
		return
	}

	err := ph.PostRepo.Update(r.Context(), b.Type, id, author.Id,
		r.FormValue("title"), r.FormValue("content"))
	if errors.Is(err, ErrNotOwner) {
		WriteMsg(w, "no permission to edit this post", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("can't update post %d: %v", id, err)
		WriteMsg(w, "failed updating post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, detailPath(b.Type, id), http.StatusFound)
}

func (ph *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, ok := ph.resolveBoard(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	author, ok := ph.authUser(w, r)
	if !ok {
		return
	}

	err := ph.PostRepo.Delete(r.Context(), b.Type, id, author.Id)
	if errors.Is(err, ErrNotOwner) {
		WriteMsg(w, "no permission to delete this post", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("can't delete post %d: %v", id, err)
		WriteMsg(w, "failed deleting post", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, listPath(b.Type), http.StatusFound)
}

func (ph *PostHandler) resolveBoard(w http.ResponseWriter, r *http.Request) (board.Board, bool) {
	b, err := board.Resolve(mux.Vars(r)["boardType"])
	if err != nil {
		WriteMsg(w, "board not found", http.StatusNotFound)
		return board.Board{}, false
	}
	return b, true
}

// authUser pulls the session user out of the request context. The auth
// middleware has already gated these routes, so a miss here means the
// session expired mid-request; send the client back to login.
func (ph *PostHandler) authUser(w http.ResponseWriter, r *http.Request) (*sessions.SessionUser, bool) {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return nil, false
	}
	return u, true
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteMsg(w, "post not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func listPath(boardType string) string {
	return fmt.Sprintf("/boards/%s", boardType)
}

func detailPath(boardType string, id int64) string {
	return fmt.Sprintf("/boards/%s/%d", boardType, id)
}

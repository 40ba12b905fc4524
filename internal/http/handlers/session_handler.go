// Session HTTP handlers.
//
//   - POST   /sessions                  (create, or resume with session_id)
//   - GET    /sessions                  (list, paginated, ETag support)
//   - GET    /sessions/{id}             (metadata plus live state)
//   - PUT    /sessions/{id}/title       (rename)
//   - DELETE /sessions/{id}             (delete)
//   - GET    /sessions/{id}/messages    (history)
//   - POST   /sessions/{id}/messages    (send, wait for the advisor reply)
//   - DELETE /sessions/{id}/messages    (clear in-memory history)
//   - POST   /sessions/{id}/cancel      (abort the in-flight request)
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/http/middleware"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/repo"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/utils"
)

const titleTimeout = 5 * time.Second

//
// DTOs
//

// OpenSessionRequest optionally names a session to resume.
type OpenSessionRequest struct {
	SessionID string `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// SessionDetail is a stored session plus the state of its live controller.
type SessionDetail struct {
	domain.Session
	Live      bool   `json:"live"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`
}

// ListSessionsResponse wraps a page of sessions.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

// RenameSessionRequest is the payload for renaming a session.
type RenameSessionRequest struct {
	Title string `json:"title" binding:"max=255" example:"Engineering in Germany"`
}

// SendMessageRequest carries the user's message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required" example:"What are the best engineering colleges in Germany?"`
}

// SendMessageResponse carries the advisor reply. Superseded is set when a
// newer message or a cancel replaced this request; Message is then null.
type SendMessageResponse struct {
	Message    *domain.Message `json:"message"`
	Superseded bool            `json:"superseded,omitempty"`
	Title      string          `json:"title,omitempty"`
}

// sessionParam returns the canonical session id from the path or fails with 400.
func sessionParam(c *gin.Context) (string, bool) {
	u, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return "", false
	}
	return u.String(), true
}

//
// Handlers
//

// OpenSession godoc
// @ID          openSession
// @Summary     Create or resume a session
// @Description Creates a session when session_id is empty, otherwise resumes it and loads its history.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.OpenSessionRequest  false  "Session to resume"
// @Success     201  {object}  services.Snapshot  "Created"
// @Success     200  {object}  services.Snapshot  "Resumed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse  "History unavailable"
// @Router      /sessions [post]
func (h *Handlers) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	existing := strings.TrimSpace(req.SessionID)

	ctrl, err := h.Sessions.Open(c.Request.Context(), userID(c), existing)
	if err != nil {
		status, code, mapped := classify(err)
		if !mapped && existing == "" {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create session")
			return
		}
		fail(c, status, code, message(err, mapped))
		return
	}
	status := http.StatusOK
	if existing == "" {
		status = http.StatusCreated
	}
	ok(c, status, ctrl.Snapshot())
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List sessions (paginated)
// @Description Returns the caller's sessions, most recently updated first. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID      header  string  false  "User ID (demo header)"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListSessionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page := utils.ParsePage(c.Query("page"), c.Query("page_size"), 20, 100)

	if h.StatsDB != nil {
		if count, maxTS, err := repo.SessionsStats(ctx, h.StatsDB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"sessions:%s:%d:%d:%d:%d"`, uid, count, ts, page.Number, page.Size)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		} else {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("session stats failed, serving without etag")
		}
	}

	items, total, err := h.SessionSvc.ListPage(ctx, uid, page.Number, page.Size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list sessions")
		return
	}
	totalPages := page.TotalPages(total)
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions: items,
		Pagination: Pagination{
			Page:       page.Number,
			PageSize:   page.Size,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page.Number < totalPages,
		},
	})
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a session
// @Tags        Sessions
// @Produce     json
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.SessionDetail
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	uid := userID(c)
	sess, err := h.SessionSvc.Get(c.Request.Context(), uid, id)
	if err != nil {
		failErr(c, err)
		return
	}
	out := SessionDetail{Session: *sess}
	if ctrl, err := h.Sessions.Get(id, uid); err == nil {
		snap := ctrl.Snapshot()
		out.Live, out.Loading, out.LastError = true, snap.Loading, snap.LastError
	}
	ok(c, http.StatusOK, out)
}

// RenameSession godoc
// @ID          renameSession
// @Summary     Rename a session
// @Description A blank title resets the session to "Untitled".
// @Tags        Sessions
// @Accept      json
// @Param       id    path  string  true  "Session ID (UUID)"  format(uuid)
// @Param       body  body  handlers.RenameSessionRequest  true  "New title"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/title [put]
func (h *Handlers) RenameSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	var req RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must be at most 255 characters")
		return
	}
	if err := h.SessionSvc.Rename(c.Request.Context(), userID(c), id, req.Title); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session
// @Tags        Sessions
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	if err := h.SessionSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     Session history
// @Description Resumes the session if needed and returns its messages in order, with the loading flag and the last error.
// @Tags        Messages
// @Produce     json
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
// @Success     200  {object}  services.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse  "History unavailable"
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	ctrl, err := h.Sessions.Open(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ctrl.Snapshot())
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message and wait for the advisor reply
// @Description The user message is recorded before the advisor is called. A newer message or a cancel supersedes this request (superseded=true).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Session ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SendMessageRequest  true  "User message"
// @Success     200  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Advisor failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Advisor unavailable"
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)

	ctx := c.Request.Context()
	uid := userID(c)
	ctrl, err := h.Sessions.Open(ctx, uid, id)
	if err != nil {
		failErr(c, err)
		return
	}

	reply, err := ctrl.SendMessage(ctx, content)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeTooLong, fmt.Sprintf("content too long: max %d characters", h.MaxPromptRunes))
		return
	case errors.Is(err, services.ErrSessionClosed):
		failErr(c, err)
		return
	}

	// The user message is in the history now, whatever the outcome.
	title := h.autoTitle(c, uid, id, content)

	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SendMessageResponse{Message: reply, Superseded: reply == nil, Title: title})
}

// autoTitle names a placeholder-titled session after the first message and
// returns the new title. Failures are logged only.
func (h *Handlers) autoTitle(c *gin.Context, uid, id, prompt string) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), titleTimeout)
	defer cancel()
	changed, err := h.SessionSvc.AutoTitle(ctx, uid, id, prompt)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("session_id", id).Msg("auto-title failed")
		return ""
	}
	if !changed {
		return ""
	}
	if sess, err := h.SessionSvc.Get(ctx, uid, id); err == nil {
		return sess.Title
	}
	return ""
}

// CancelRequest godoc
// @ID          cancelRequest
// @Summary     Cancel the in-flight advisor request
// @Description Clears the loading flag immediately. Does nothing when no request is in flight.
// @Tags        Messages
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/cancel [post]
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	uid := userID(c)
	if ctrl, err := h.Sessions.Get(id, uid); err == nil {
		ctrl.CancelRequest()
		noContent(c)
		return
	}
	// Not live, so nothing is in flight; only ownership is checked.
	if _, err := h.SessionSvc.Get(c.Request.Context(), uid, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ClearMessages godoc
// @ID          clearMessages
// @Summary     Clear the conversation view
// @Description Empties the in-memory history and aborts any in-flight request. Stored messages are kept.
// @Tags        Messages
// @Param       id  path  string  true  "Session ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/messages [delete]
func (h *Handlers) ClearMessages(c *gin.Context) {
	id, valid := sessionParam(c)
	if !valid {
		return
	}
	ctrl, err := h.Sessions.Open(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	if err := ctrl.ClearMessages(); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

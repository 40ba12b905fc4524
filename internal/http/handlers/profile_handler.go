// Profile and bookmark HTTP handlers.
//
//   - GET  /profile                        (saved preference profile)
//   - PUT  /profile                        (replace it, validated)
//   - GET  /bookmarks                      (saved colleges)
//   - POST /bookmarks/{collegeId}/toggle   (flip one bookmark)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

// BookmarksResponse wraps the caller's bookmarks.
type BookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

// ToggleBookmarkResponse is the bookmark state after a toggle.
type ToggleBookmarkResponse struct {
	CollegeID  string `json:"college_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Preference profile
// @Tags        Profile
// @Produce     json
// @Success     200  {object}  domain.OnboardingData
// @Failure     404  {object}  handlers.ErrorResponse  "No profile yet"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// PutProfile godoc
// @ID          putProfile
// @Summary     Replace the preference profile
// @Tags        Profile
// @Accept      json
// @Param       body  body  domain.OnboardingData  true  "Profile"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /profile [put]
func (h *Handlers) PutProfile(c *gin.Context) {
	var data domain.OnboardingData
	if err := c.ShouldBindJSON(&data); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.Profiles.Save(c.Request.Context(), userID(c), data); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListBookmarks godoc
// @ID          listBookmarks
// @Summary     Bookmarked colleges
// @Tags        Bookmarks
// @Produce     json
// @Success     200  {object}  handlers.BookmarksResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /bookmarks [get]
func (h *Handlers) ListBookmarks(c *gin.Context) {
	items, err := h.Bookmarks.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list bookmarks")
		return
	}
	ok(c, http.StatusOK, BookmarksResponse{Bookmarks: items})
}

// ToggleBookmark godoc
// @ID          toggleBookmark
// @Summary     Bookmark or un-bookmark a college
// @Description On a storage failure the bookmark keeps its previous state, returned alongside the error code.
// @Tags        Bookmarks
// @Produce     json
// @Param       collegeId  path  string  true  "College ID"
// @Success     200  {object}  handlers.ToggleBookmarkResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ToggleBookmarkResponse  "Reverted"
// @Router      /bookmarks/{collegeId}/toggle [post]
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	collegeID := c.Param("collegeId")
	state, err := h.Bookmarks.Toggle(c.Request.Context(), userID(c), collegeID)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ToggleBookmarkResponse{CollegeID: collegeID, Bookmarked: state})
	case errors.Is(err, services.ErrBookmarkFailed):
		c.Header("X-Error-Code", ErrCodeBookmarkFailed)
		ok(c, http.StatusBadGateway, ToggleBookmarkResponse{CollegeID: collegeID, Bookmarked: state})
	default:
		failErr(c, err)
	}
}

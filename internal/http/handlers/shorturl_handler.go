// Short-URL cache endpoints.
//
//   - POST /shorturls (cache one shortener result for a user)
//   - GET  /shorturls (look up the newest cached short form)
//
// The service only caches; shortening itself happens elsewhere.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RecordShortURLBody caches one shortener result.
type RecordShortURLBody struct {
	UserID   int64  `json:"user_id" binding:"required"`
	URL      string `json:"url" binding:"required"`
	ShortURL string `json:"short_url" binding:"required"`
}

// ShortURLResponse is the cached short form for a url.
type ShortURLResponse struct {
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
}

// RecordShortURL handles POST /shorturls.
func (h *Handlers) RecordShortURL(c *gin.Context) {
	var body RecordShortURLBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id, url and short_url required")
		return
	}

	if err := h.svc.InsertShortURL(c.Request.Context(), body.UserID, body.URL, body.ShortURL); err != nil {
		failStore(c, err, ErrCodePersistFailed)
		return
	}
	c.Status(http.StatusCreated)
}

// GetShortURL handles GET /shorturls with required ?user_id= and ?url=.
func (h *Handlers) GetShortURL(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	url := c.Query("url")
	if err != nil || url == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and url required")
		return
	}

	short, err := h.svc.SelectShortURL(c.Request.Context(), url, userID)
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	if short == "" {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no cached short url")
		return
	}
	ok(c, http.StatusOK, ShortURLResponse{URL: url, ShortURL: short})
}

// Outbound request-rate accounting endpoints.
//
//   - GET  /requests/count (read the three sliding-window counters)
//   - POST /requests       (record one outbound Bot API call)
//
// The service only counts; callers decide whether to throttle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecordRequestBody is the JSON payload recording one outbound API call.
// Data is the call's parameter map; only chat_id and inline_message_id are
// extracted from it.
type RecordRequestBody struct {
	Method string         `json:"method" binding:"required"`
	Data   map[string]any `json:"data"`
}

// GetRequestCount handles GET /requests/count with ?chat_id= and
// ?inline_message_id= selecting the accounting target.
func (h *Handlers) GetRequestCount(c *gin.Context) {
	rc, err := h.svc.GetTelegramRequestCount(c.Request.Context(),
		c.Query("chat_id"), c.Query("inline_message_id"))
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, rc)
}

// RecordRequest handles POST /requests.
func (h *Handlers) RecordRequest(c *gin.Context) {
	var body RecordRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "method required")
		return
	}

	if err := h.svc.InsertTelegramRequest(c.Request.Context(), body.Method, body.Data); err != nil {
		failStore(c, err, ErrCodePersistFailed)
		return
	}
	noContent(c)
}

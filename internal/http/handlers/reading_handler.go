package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfquest/achievements-backend/internal/services"
)

// SetStatusRequest is the body of PUT /books/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required" example:"read" enums:"want_to_read,reading,read"`
}

// SetBookStatus godoc
// @ID          setBookStatus
// @Summary     Set reading status
// @Description Records the current user's status for a book. Moving a book to "read" queues an achievement event once.
// @Tags        Books
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"  example(reader-1)
// @Param       id         path    string  true   "Book ID"
// @Param       body       body    handlers.SetStatusRequest  true  "New status"
// @Success     200  {object}  domain.UserBook
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404  {object}  handlers.ErrorResponse  "Book not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /books/{id}/status [put]
func (h *Handlers) SetBookStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status is required")
		return
	}

	ub, err := h.reading.SetStatus(c.Request.Context(), userID(c), c.Param("id"), req.Status)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ub)
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be want_to_read, reading or read")
	case errors.Is(err, services.ErrEmptyUser):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id required")
	case errors.Is(err, services.ErrBookNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "book not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	}
}

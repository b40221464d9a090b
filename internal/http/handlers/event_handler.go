package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/http/middleware"
	"github.com/shelfquest/achievements-backend/internal/repo"
	"github.com/shelfquest/achievements-backend/internal/services"
	"github.com/shelfquest/achievements-backend/internal/utils"
)

const maxProcessLimit = 1000

// EnqueueEventRequest is the body of POST /events.
type EnqueueEventRequest struct {
	EventType string          `json:"event_type" binding:"required" example:"book_completed"`
	Payload   json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// ProcessResponse reports how many queued events a drain consumed.
type ProcessResponse struct {
	Processed int    `json:"processed" example:"12"`
	Error     string `json:"error,omitempty"`
}

// EnqueueEvent godoc
// @ID          enqueueEvent
// @Summary     Queue a reading-activity event
// @Description Appends an event for the current user. With an Idempotency-Key, a retry returns the originally created event and sets Idempotency-Replayed: true.
// @Tags        Events
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false  "User ID"                           example(reader-1)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.EnqueueEventRequest  true  "Event"
// @Success     202  {object}  domain.AchievementEvent
// @Header      202  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid event"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /events [post]
func (h *Handlers) EnqueueEvent(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req EnqueueEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "event_type is required")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if key != "" && h.DB != nil {
		if prev := h.replay(c, uid, scope, key); prev != nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusAccepted, prev)
			return
		}
	}

	payload := ""
	if p := strings.TrimSpace(string(req.Payload)); p != "" && p != "null" {
		payload = p
	}
	ev, err := h.events.Enqueue(ctx, uid, req.EventType, payload)
	switch {
	case errors.Is(err, services.ErrEmptyUser), errors.Is(err, services.ErrInvalidEvent):
		fail(c, http.StatusBadRequest, ErrCodeInvalidEvent, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeEnqueueFailed, err.Error())
		return
	}

	if key != "" && h.DB != nil {
		// A concurrent request with the same key may win the insert; its
		// record then answers later retries.
		if _, err := repo.CreateIdempotency(ctx, h.DB, uid, scope, key, ev.ID, http.StatusAccepted, h.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Str("event_id", ev.ID).Msg("store idempotency record failed")
		}
	}
	ok(c, http.StatusAccepted, ev)
}

func (h *Handlers) replay(c *gin.Context, uid, scope, key string) *domain.AchievementEvent {
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.DB, uid, scope, key, time.Now().UTC())
	if err != nil {
		return nil
	}
	ev, err := repo.GetEvent(ctx, h.DB, rec.ResourceID)
	if err != nil {
		return nil
	}
	return ev
}

// ProcessEvents godoc
// @ID          processEvents
// @Summary     Drain the event queue
// @Description Consumes up to limit pending events, oldest first, re-evaluating achievements for each.
// @Tags        Events
// @Produce     json
// @Param       limit  query  int  false  "Maximum events to consume"  minimum(1) maximum(1000) default(50)
// @Success     200  {object}  handlers.ProcessResponse
// @Failure     503  {object}  handlers.ProcessResponse  "Queue unavailable"
// @Router      /events/process [post]
func (h *Handlers) ProcessEvents(c *gin.Context) {
	limit := utils.LimitParam(c.Query("limit"), services.DefaultBatchSize, maxProcessLimit)

	n, err := h.events.ProcessBatch(c.Request.Context(), limit)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("process events failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ProcessResponse{Processed: 0, Error: "event queue unavailable"})
		return
	}
	ok(c, http.StatusOK, ProcessResponse{Processed: n})
}

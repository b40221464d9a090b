package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfquest/achievements-backend/internal/leaderboard"
	"github.com/shelfquest/achievements-backend/internal/utils"
)

// LeaderboardResponse wraps the top entries.
type LeaderboardResponse struct {
	Entries []leaderboard.Entry `json:"entries"`
}

// TopReaders godoc
// @ID          topReaders
// @Summary     Points leaderboard
// @Description Returns the users with the most achievement points.
// @Tags        Leaderboard
// @Produce     json
// @Param       limit  query  int  false  "Entries to return"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.LeaderboardResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Leaderboard disabled"
// @Failure     503  {object}  handlers.ErrorResponse  "Leaderboard unavailable"
// @Router      /leaderboard [get]
func (h *Handlers) TopReaders(c *gin.Context) {
	if h.board == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "leaderboard disabled")
		return
	}
	n := utils.LimitParam(c.Query("limit"), 10, 100)
	entries, err := h.board.Top(c.Request.Context(), n)
	if err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "leaderboard unavailable")
		return
	}
	ok(c, http.StatusOK, LeaderboardResponse{Entries: entries})
}

// MyRank godoc
// @ID          myRank
// @Summary     Current user's rank
// @Tags        Leaderboard
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"  example(reader-1)
// @Success     200  {object}  leaderboard.Entry
// @Failure     404  {object}  handlers.ErrorResponse  "Leaderboard disabled or user not ranked"
// @Failure     503  {object}  handlers.ErrorResponse  "Leaderboard unavailable"
// @Router      /leaderboard/me [get]
func (h *Handlers) MyRank(c *gin.Context) {
	if h.board == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "leaderboard disabled")
		return
	}
	e, err := h.board.Rank(c.Request.Context(), userID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, e)
	case errors.Is(err, leaderboard.ErrNotRanked):
		fail(c, http.StatusNotFound, ErrCodeNotRanked, "no points yet")
	default:
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "leaderboard unavailable")
	}
}

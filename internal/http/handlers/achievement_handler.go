package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shelfquest/achievements-backend/internal/catalog"
	"github.com/shelfquest/achievements-backend/internal/http/middleware"
	"github.com/shelfquest/achievements-backend/internal/repo"
	"github.com/shelfquest/achievements-backend/internal/services"
)

// CheckResponse lists achievements unlocked by a check.
type CheckResponse struct {
	Unlocked []string `json:"unlocked" example:"4b0f6d8e-2c1a-5d3e-9f4b-7a6c5d4e3f2a"`
}

// AchievementsResponse wraps a user's achievement views.
type AchievementsResponse struct {
	Achievements []services.AchievementView `json:"achievements"`
}

// CatalogResponse wraps catalog definitions.
type CatalogResponse struct {
	Definitions []catalog.Definition `json:"definitions"`
}

// CheckAchievements godoc
// @ID          checkAchievements
// @Summary     Evaluate achievements
// @Description Recomputes every metric for the current user and returns the ids unlocked by this call. Never fails; an unavailable store yields an empty list.
// @Tags        Achievements
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"  example(reader-1)
// @Success     200  {object}  handlers.CheckResponse
// @Router      /achievements/check [post]
func (h *Handlers) CheckAchievements(c *gin.Context) {
	unlocked := h.achievements.CheckAll(c.Request.Context(), userID(c))
	ok(c, http.StatusOK, CheckResponse{Unlocked: unlocked})
}

// ListAchievements godoc
// @ID          listAchievements
// @Summary     List achievement progress
// @Description Returns every progress row for the current user. Supports a weak ETag via If-None-Match.
// @Tags        Achievements
// @Produce     json
// @Param       X-User-ID      header  string  false  "User ID"                     example(reader-1)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.AchievementsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Router      /achievements [get]
func (h *Handlers) ListAchievements(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if h.DB != nil {
		if count, maxTS, err := repo.ProgressStats(ctx, h.DB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"achievements:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	views, err := h.achievements.GetUserAchievements(ctx, uid)
	if err != nil {
		degraded(c, err, "list achievements failed")
		views = nil
	}
	ok(c, http.StatusOK, AchievementsResponse{Achievements: nonNil(views)})
}

// ListUnnotified godoc
// @ID          listUnnotifiedAchievements
// @Summary     List unacknowledged unlocks
// @Description Returns completed achievements the current user has not yet been shown.
// @Tags        Achievements
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"  example(reader-1)
// @Success     200  {object}  handlers.AchievementsResponse
// @Router      /achievements/unnotified [get]
func (h *Handlers) ListUnnotified(c *gin.Context) {
	views, err := h.achievements.GetUnnotifiedAchievements(c.Request.Context(), userID(c))
	if err != nil {
		degraded(c, err, "list unnotified achievements failed")
		views = nil
	}
	ok(c, http.StatusOK, AchievementsResponse{Achievements: nonNil(views)})
}

// MarkNotified godoc
// @ID          markAchievementNotified
// @Summary     Acknowledge an unlock
// @Description Marks a completed achievement as shown to the user. Repeating the call is harmless.
// @Tags        Achievements
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"         example(reader-1)
// @Param       id         path    string  true   "Achievement ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "No completed achievement with that id"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /achievements/{id}/notified [post]
func (h *Handlers) MarkNotified(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	err := h.achievements.MarkNotified(c.Request.Context(), userID(c), id)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrAchievementNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "achievement not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	}
}

// ListCatalog godoc
// @ID          listAchievementCatalog
// @Summary     List achievement definitions
// @Description Returns the compiled-in catalog, optionally filtered by category.
// @Tags        Achievements
// @Produce     json
// @Param       category  query  string  false  "Category filter"  Enums(milestone, genre, author, series, consistency)
// @Success     200  {object}  handlers.CatalogResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown category"
// @Router      /achievements/catalog [get]
func (h *Handlers) ListCatalog(c *gin.Context) {
	cat := strings.ToLower(strings.TrimSpace(c.Query("category")))
	if cat == "" {
		ok(c, http.StatusOK, CatalogResponse{Definitions: catalog.All()})
		return
	}
	for _, known := range catalog.Categories {
		if string(known) == cat {
			ok(c, http.StatusOK, CatalogResponse{Definitions: catalog.ByCategory(known)})
			return
		}
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("unknown category %q", cat))
}

// degraded logs a read failure that is answered with an empty payload.
func degraded(c *gin.Context, err error, msg string) {
	middleware.LoggerFrom(c).Warn().Err(err).Msg(msg)
}

func nonNil(v []services.AchievementView) []services.AchievementView {
	if v == nil {
		return []services.AchievementView{}
	}
	return v
}

package handler

import (
	"net/http"
	"strconv"

	"taskboard/internal/authz"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 100
)

type ActivityHandler struct {
	guard        *authz.Guard
	activityRepo *repository.ActivityRepository
}

func NewActivityHandler(guard *authz.Guard, activityRepo *repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{guard: guard, activityRepo: activityRepo}
}

// GetByBoard returns one page of the board's activity feed, newest first.
func (h *ActivityHandler) GetByBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.guard.Check(c.Request.Context(), userID, boardID, authz.CapRead); err != nil {
		respondError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultActivityLimit)))
	if err != nil || limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	activities, total, err := h.activityRepo.GetByBoardID(c.Request.Context(), boardID, limit, page)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve activity")
		return
	}

	items := make([]ActivityResponse, len(activities))
	for i := range activities {
		items[i] = newActivityResponse(&activities[i])
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	respondData(c, http.StatusOK, gin.H{
		"activities": items,
		"pagination": gin.H{
			"current": page,
			"pages":   pages,
			"total":   total,
		},
	})
}

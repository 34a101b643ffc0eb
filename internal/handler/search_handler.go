package handler

import (
	"net/http"
	"strings"

	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	searchTaskLimit  = 10
	searchBoardLimit = 5
)

type SearchHandler struct {
	boardRepo *repository.BoardRepository
	taskRepo  *repository.TaskRepository
}

func NewSearchHandler(boardRepo *repository.BoardRepository, taskRepo *repository.TaskRepository) *SearchHandler {
	return &SearchHandler{boardRepo: boardRepo, taskRepo: taskRepo}
}

// Search matches tasks by title/description and boards by name, scoped to
// the boards the user owns or is a member of.
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondErrorMsg(c, http.StatusBadRequest, "Search query is required")
		return
	}

	kind := c.DefaultQuery("type", "all")
	switch kind {
	case "all", "task", "board":
	default:
		respondErrorMsg(c, http.StatusBadRequest, "Invalid search type")
		return
	}

	var boardID *uuid.UUID
	if raw := c.Query("boardId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondErrorMsg(c, http.StatusBadRequest, "Invalid boardId")
			return
		}
		boardID = &id
	}

	result := gin.H{}

	if kind == "all" || kind == "task" {
		tasks, err := h.taskRepo.Search(c.Request.Context(), userID, query, boardID, searchTaskLimit)
		if err != nil {
			respondErrorMsg(c, http.StatusInternalServerError, "Search failed")
			return
		}
		items := make([]TaskResponse, len(tasks))
		for i := range tasks {
			items[i] = newTaskResponse(&tasks[i])
		}
		result["tasks"] = items
	}

	if kind == "all" || kind == "board" {
		boards, err := h.boardRepo.SearchByName(c.Request.Context(), userID, query, searchBoardLimit)
		if err != nil {
			respondErrorMsg(c, http.StatusInternalServerError, "Search failed")
			return
		}
		items := make([]BoardResponse, len(boards))
		for i := range boards {
			items[i] = newBoardResponse(&boards[i])
		}
		result["boards"] = items
	}

	respondData(c, http.StatusOK, result)
}

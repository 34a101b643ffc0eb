package handler

import (
	"net/http"

	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/pipeline"
	"taskboard/internal/repository"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	pipe      *pipeline.Pipeline
	guard     *authz.Guard
	boardRepo *repository.BoardRepository
	bc        ws.Broadcaster
}

func NewBoardHandler(pipe *pipeline.Pipeline, guard *authz.Guard, boardRepo *repository.BoardRepository, bc ws.Broadcaster) *BoardHandler {
	return &BoardHandler{pipe: pipe, guard: guard, boardRepo: boardRepo, bc: bc}
}

type createBoardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateBoardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// GetAll returns the boards the user owns or is a member of. With
// ?owned=true only the boards the user owns are returned.
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var boards []model.Board
	var err error
	if c.Query("owned") == "true" {
		boards, err = h.boardRepo.GetOwned(c.Request.Context(), userID)
	} else {
		boards, err = h.boardRepo.GetForUser(c.Request.Context(), userID)
	}
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve boards")
		return
	}

	resp := make([]BoardResponse, len(boards))
	for i := range boards {
		resp[i] = newBoardResponse(&boards[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *BoardHandler) Get(c *gin.Context) {
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

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve board")
		return
	}
	if board == nil {
		respondErrorMsg(c, http.StatusNotFound, "Board not found")
		return
	}

	respondData(c, http.StatusOK, newBoardResponse(board))
}

func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.CreateBoard{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newBoardResponse(res.Data.(*model.Board))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusCreated, resp)
}

func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.UpdateBoard{
		BoardID:     boardID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newBoardResponse(res.Data.(*model.Board))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusOK, resp)
}

func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.DeleteBoard{BoardID: boardID})
	if err != nil {
		respondError(c, err)
		return
	}

	h.bc.Broadcast(res.BoardID, res.Action, nil)
	respondMessage(c, http.StatusOK, "Board deleted")
}

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

type ListHandler struct {
	pipe     *pipeline.Pipeline
	guard    *authz.Guard
	listRepo *repository.ListRepository
	bc       ws.Broadcaster
}

func NewListHandler(pipe *pipeline.Pipeline, guard *authz.Guard, listRepo *repository.ListRepository, bc ws.Broadcaster) *ListHandler {
	return &ListHandler{pipe: pipe, guard: guard, listRepo: listRepo, bc: bc}
}

type createListRequest struct {
	Title    string `json:"title" binding:"required"`
	Position *int   `json:"position"`
}

type updateListRequest struct {
	Title    *string `json:"title"`
	Position *int    `json:"position"`
}

// GetByBoard returns the board's lists in rendering order.
func (h *ListHandler) GetByBoard(c *gin.Context) {
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

	lists, err := h.listRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve lists")
		return
	}

	resp := make([]ListResponse, len(lists))
	for i := range lists {
		resp[i] = newListResponse(&lists[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *ListHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, err := h.guard.ResolveList(c.Request.Context(), listID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.guard.Check(c.Request.Context(), userID, boardID, authz.CapRead); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.listRepo.GetByID(c.Request.Context(), listID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve list")
		return
	}
	if list == nil {
		respondErrorMsg(c, http.StatusNotFound, "List not found")
		return
	}

	respondData(c, http.StatusOK, newListResponse(list))
}

func (h *ListHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.CreateList{
		BoardID:  boardID,
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newListResponse(res.Data.(*model.List))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusCreated, resp)
}

func (h *ListHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.UpdateList{
		ListID:   listID,
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newListResponse(res.Data.(*model.List))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusOK, resp)
}

func (h *ListHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.DeleteList{ListID: listID})
	if err != nil {
		respondError(c, err)
		return
	}

	h.bc.Broadcast(res.BoardID, res.Action, nil)
	respondMessage(c, http.StatusOK, "List deleted")
}

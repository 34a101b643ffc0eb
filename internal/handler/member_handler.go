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

type MemberHandler struct {
	pipe       *pipeline.Pipeline
	guard      *authz.Guard
	memberRepo *repository.MemberRepository
	bc         ws.Broadcaster
}

func NewMemberHandler(pipe *pipeline.Pipeline, guard *authz.Guard, memberRepo *repository.MemberRepository, bc ws.Broadcaster) *MemberHandler {
	return &MemberHandler{pipe: pipe, guard: guard, memberRepo: memberRepo, bc: bc}
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Role   string `json:"role" binding:"required"`
}

type updateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *MemberHandler) GetAll(c *gin.Context) {
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

	members, err := h.memberRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve members")
		return
	}

	resp := make([]MemberResponse, len(members))
	for i := range members {
		resp[i] = newMemberResponse(&members[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *MemberHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.AddMember{
		BoardID: boardID,
		UserID:  mustUUID(req.UserID),
		Role:    req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newMemberResponse(res.Data.(*model.BoardMember))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusCreated, resp)
}

func (h *MemberHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "memberId")
	if !ok {
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.UpdateMember{
		BoardID:  boardID,
		MemberID: memberID,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newMemberResponse(res.Data.(*model.BoardMember))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusOK, resp)
}

func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "memberId")
	if !ok {
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.RemoveMember{
		BoardID:  boardID,
		MemberID: memberID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.bc.Broadcast(res.BoardID, res.Action, nil)
	respondMessage(c, http.StatusOK, "Member removed")
}

package handler

import (
	"net/http"
	"time"

	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/pipeline"
	"taskboard/internal/repository"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	pipe     *pipeline.Pipeline
	guard    *authz.Guard
	taskRepo *repository.TaskRepository
	bc       ws.Broadcaster
}

func NewTaskHandler(pipe *pipeline.Pipeline, guard *authz.Guard, taskRepo *repository.TaskRepository, bc ws.Broadcaster) *TaskHandler {
	return &TaskHandler{pipe: pipe, guard: guard, taskRepo: taskRepo, bc: bc}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Position    *int       `json:"position"`
	Assignees   []string   `json:"assignees" binding:"omitempty,dive,uuid"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Position    *int       `json:"position"`
	ListID      *string    `json:"listId" binding:"omitempty,uuid"`
	Assignees   *[]string  `json:"assignees" binding:"omitempty,dive,uuid"`
}

type moveTaskRequest struct {
	ListID string `json:"listId" binding:"required,uuid"`
}

type assigneeRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

// GetByList returns the list's tasks in rendering order.
func (h *TaskHandler) GetByList(c *gin.Context) {
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

	tasks, err := h.taskRepo.GetByListID(c.Request.Context(), listID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = newTaskResponse(&tasks[i])
	}
	respondData(c, http.StatusOK, resp)
}

// GetByBoard returns every task on the board in rendering order, optionally
// restricted to one list with ?listId=.
func (h *TaskHandler) GetByBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var listID *uuid.UUID
	if raw := c.Query("listId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondErrorMsg(c, http.StatusBadRequest, "Invalid list id")
			return
		}
		listID = &id
	}

	if err := h.guard.Check(c.Request.Context(), userID, boardID, authz.CapRead); err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.taskRepo.GetByBoardID(c.Request.Context(), boardID, listID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = newTaskResponse(&tasks[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, err := h.guard.ResolveTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.guard.Check(c.Request.Context(), userID, boardID, authz.CapRead); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve task")
		return
	}
	if task == nil {
		respondErrorMsg(c, http.StatusNotFound, "Task not found")
		return
	}

	respondData(c, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	assignees := make([]uuid.UUID, len(req.Assignees))
	for i, a := range req.Assignees {
		assignees[i] = mustUUID(a)
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.CreateTask{
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Position:    req.Position,
		Assignees:   assignees,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newTaskResponse(res.Data.(*model.Task))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusCreated, resp)
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	mutation := &pipeline.UpdateTask{
		TaskID:      taskID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Position:    req.Position,
	}
	if req.ListID != nil {
		listID := mustUUID(*req.ListID)
		mutation.ListID = &listID
	}
	if req.Assignees != nil {
		assignees := make([]uuid.UUID, len(*req.Assignees))
		for i, a := range *req.Assignees {
			assignees[i] = mustUUID(a)
		}
		mutation.Assignees = &assignees
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, mutation)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newTaskResponse(res.Data.(*model.Task))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusOK, resp)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.DeleteTask{TaskID: taskID})
	if err != nil {
		respondError(c, err)
		return
	}

	h.bc.Broadcast(res.BoardID, res.Action, nil)
	respondMessage(c, http.StatusOK, "Task deleted")
}

// Move re-homes a task onto another list of the same board.
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req moveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.MoveTask{
		TaskID: taskID,
		ListID: mustUUID(req.ListID),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newTaskResponse(res.Data.(*model.Task))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusOK, resp)
}

func (h *TaskHandler) GetAssignees(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, err := h.guard.ResolveTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.guard.Check(c.Request.Context(), userID, boardID, authz.CapRead); err != nil {
		respondError(c, err)
		return
	}

	users, err := h.taskRepo.GetAssignees(c.Request.Context(), taskID)
	if err != nil {
		respondErrorMsg(c, http.StatusInternalServerError, "Failed to retrieve assignees")
		return
	}
	if users == nil {
		respondErrorMsg(c, http.StatusNotFound, "Task not found")
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = newUserResponse(&users[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *TaskHandler) AddAssignee(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req assigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMsg(c, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.AddAssignee{
		TaskID: taskID,
		UserID: mustUUID(req.UserID),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newUserResponse(res.Data.(*model.User))
	h.bc.Broadcast(res.BoardID, res.Action, resp)
	respondData(c, http.StatusCreated, resp)
}

func (h *TaskHandler) RemoveAssignee(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	assigneeID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	res, err := h.pipe.Apply(c.Request.Context(), userID, &pipeline.RemoveAssignee{
		TaskID: taskID,
		UserID: assigneeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.bc.Broadcast(res.BoardID, res.Action, nil)
	respondMessage(c, http.StatusOK, "Assignee removed")
}

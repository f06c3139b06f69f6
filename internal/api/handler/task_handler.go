package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

// TaskHandler serves the task endpoints. Every call passes the caller's
// identity to the service, which scopes the query to the caller's own tasks
// unless the caller is an admin.
type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns a page of tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Param        status    query     string  false  "Status"    Enums(pending, completed)
// @Param        priority  query     string  false  "Priority"  Enums(low, medium, high)
// @Param        search    query     string  false  "Search title and description"
// @Param        userId    query     string  false  "Target user (admin only)"
// @Success      200       {object}  listTasksResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      401       {object}  ErrorResponse
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	var req listTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.taskService.ListTasks(c.Request().Context(), id, ports.ListTasksInput{
		Status:   domain.TaskStatus(req.Status),
		Priority: domain.TaskPriority(req.Priority),
		Search:   req.Search,
		UserID:   req.UserID,
		Page:     req.Page,
		Limit:    req.Limit,
	})
	if err != nil {
		return err
	}

	items := make([]*taskResponse, len(res.Items))
	for i, t := range res.Items {
		items[i] = toTaskResponse(t)
	}
	return c.JSON(http.StatusOK, listTasksResponse{
		Items: items,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

// Create adds a task owned by the caller.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  taskResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), id, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	metrics.TasksCreatedTotal.WithLabelValues(string(task.Priority)).Inc()
	return c.JSON(http.StatusCreated, toTaskResponse(task))
}

// Get returns one task.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.GetTask(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update changes title, description, priority or status of a task.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete removes a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := scopedIdentity(c)
	if err != nil {
		return err
	}
	if err := h.taskService.DeleteTask(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	metrics.TasksDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

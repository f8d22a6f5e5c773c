package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskhub/internal/cache"
	"taskhub/internal/models"
	"taskhub/internal/repository"
	"taskhub/internal/websocket"
	"taskhub/pkg/logger"
)

// TaskHandler menangani CRUD task. Identitas caller selalu diambil dari
// locals (hasil RequireAuth), tidak pernah dari body request; repository
// menerima user id itu sebagai parameter eksplisit di setiap pemanggilan.
type TaskHandler struct {
	tasks    *repository.TaskRepo
	cache    *cache.TaskCache
	hub      *websocket.Hub
	validate *validator.Validate
}

func NewTaskHandler(tasks *repository.TaskRepo, taskCache *cache.TaskCache, hub *websocket.Hub, validate *validator.Validate) *TaskHandler {
	return &TaskHandler{
		tasks:    tasks,
		cache:    taskCache,
		hub:      hub,
		validate: validate,
	}
}

// taskNotFound adalah response untuk task yang tidak ada DAN task milik
// user lain. Keduanya harus identik supaya keberadaan record tidak bocor.
func taskNotFound(c *fiber.Ctx) error {
	return c.Status(404).JSON(fiber.Map{
		"message": "Task not found",
		"success": false,
		"status":  404,
	})
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	// struct TaskRequest menerima inputan dari user
	type TaskRequest struct {
		Title       string            `json:"title" validate:"required,min=1,max=200"`
		Description string            `json:"description" validate:"omitempty,max=2000"`
		Status      models.TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := h.validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// status default pending jika tidak dikirim
	if req.Status == "" {
		req.Status = models.StatusPending
	}

	// owner task selalu userID hasil resolusi token, bukan dari body
	task, err := h.tasks.Create(c.Context(), userID, req.Title, req.Description, req.Status)
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	h.cache.Invalidate(c.Context(), userID, task.ID)
	h.hub.Publish(userID, websocket.Event{Event: "task_created", Task: task})

	logger.AuditLogger.Info("Task created successfully",
		zap.Int("task_id", task.ID), zap.Int("user_id", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"data":    task,
	})
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	// Coba ambil dari cache Redis; key sudah ter-scope per owner
	if tasks, ok := h.cache.GetList(c.Context(), userID); ok {
		return c.JSON(fiber.Map{
			"message": "Tasks fetched successfully",
			"success": true,
			"status":  200,
			"data":    tasks,
		})
	}

	tasks, err := h.tasks.List(c.Context(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}

	h.cache.SetList(c.Context(), userID, tasks)

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	// dapatkan task ID dari parameter URL
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	// Coba ambil dari cache; key memuat owner id jadi cache hit milik
	// user lain tidak mungkin terjadi
	if task, ok := h.cache.GetTask(c.Context(), userID, taskID); ok {
		return c.JSON(fiber.Map{
			"message": "Task found",
			"success": true,
			"status":  200,
			"data":    task,
		})
	}

	task, err := h.tasks.Get(c.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.SecurityLogger.Warn("Task not found or not owned",
				zap.Int("user_id", userID), zap.Int("task_id", taskID))
			return taskNotFound(c)
		}
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	h.cache.SetTask(c.Context(), task)

	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	// pointer (*) menandakan field boleh kosong; hanya field yang dikirim
	// yang diubah
	type UpdateTaskRequest struct {
		Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string            `json:"description" validate:"omitempty,max=2000"`
		Status      *models.TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := h.validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Update dan cek kepemilikan terjadi dalam satu statement di
	// repository; tidak ditemukan dan bukan milik caller sama-sama
	// berakhir di ErrNotFound.
	task, err := h.tasks.Update(c.Context(), userID, taskID, repository.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.SecurityLogger.Warn("Update on missing or foreign task",
				zap.Int("user_id", userID), zap.Int("task_id", taskID))
			return taskNotFound(c)
		}
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	h.cache.Invalidate(c.Context(), userID, taskID)
	h.hub.Publish(userID, websocket.Event{Event: "task_updated", Task: task})

	logger.AuditLogger.Info("Task updated", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	// Delete dan cek kepemilikan dalam satu statement; delete kedua kali
	// pada id yang sama mendapat 404 lagi, bukan sukses.
	if err := h.tasks.Delete(c.Context(), userID, taskID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.SecurityLogger.Warn("Delete on missing or foreign task",
				zap.Int("user_id", userID), zap.Int("task_id", taskID))
			return taskNotFound(c)
		}
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}

	h.cache.Invalidate(c.Context(), userID, taskID)
	h.hub.Publish(userID, websocket.Event{Event: "task_deleted", TaskID: taskID})

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
		"success": true,
		"status":  200,
	})
}

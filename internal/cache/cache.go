package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"taskhub/internal/models"
	"taskhub/pkg/logger"
)

// TaskCache adalah read cache di Redis untuk Get dan List. Owner id selalu
// menjadi bagian key, jadi cache tidak pernah bisa menyajikan record milik
// user lain. Semua operasi best-effort: kalau Redis bermasalah, caller
// jatuh ke database, bukan gagal.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCache(client *redis.Client) *TaskCache {
	return &TaskCache{client: client, ttl: time.Hour}
}

func taskKey(userID, taskID int) string {
	return fmt.Sprintf("task:%d:%d", userID, taskID)
}

func listKey(userID int) string {
	return fmt.Sprintf("tasks:%d", userID)
}

func (c *TaskCache) GetTask(ctx context.Context, userID, taskID int) (*models.Task, bool) {
	cached, err := c.client.Get(ctx, taskKey(userID, taskID)).Result()
	if err != nil {
		return nil, false
	}
	var task models.Task
	if err := json.Unmarshal([]byte(cached), &task); err != nil {
		return nil, false
	}
	return &task, true
}

func (c *TaskCache) SetTask(ctx context.Context, task *models.Task) {
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := c.client.SetEX(ctx, taskKey(task.UserID, task.ID), data, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.Error(err))
	}
}

func (c *TaskCache) GetList(ctx context.Context, userID int) ([]models.Task, bool) {
	cached, err := c.client.Get(ctx, listKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal([]byte(cached), &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}

func (c *TaskCache) SetList(ctx context.Context, userID int, tasks []models.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.client.SetEX(ctx, listKey(userID), data, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task list", zap.Error(err))
	}
}

// Invalidate membuang entry task dan list milik userID. Dipanggil pada
// setiap mutasi sebelum response dikirim.
func (c *TaskCache) Invalidate(ctx context.Context, userID, taskID int) {
	c.client.Del(ctx, taskKey(userID, taskID), listKey(userID))
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskhub/internal/models"
)

// TaskRepo adalah satu-satunya jalur akses ke tabel tasks. Setiap query
// membawa user_id pemanggil di klausa WHERE (atau INSERT), jadi tidak ada
// jalur kode yang bisa membaca atau mengubah record milik user lain.
// Record yang tidak ada dan record milik user lain sama-sama menghasilkan
// ErrNotFound.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// TaskUpdate berisi field yang ingin diubah; nil berarti tidak disentuh.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

const taskColumns = "id, user_id, title, description, status, created_at, updated_at"

func scanTask(row *sql.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Create membuat task dengan owner = userID. Owner tidak pernah diambil
// dari input caller lain; timestamp di-set oleh database.
func (r *TaskRepo) Create(ctx context.Context, userID int, title, description string, status models.TaskStatus) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+taskColumns,
		userID, title, description, string(status),
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// List mengembalikan semua task milik userID, terbaru dulu.
func (r *TaskRepo) List(ctx context.Context, userID int) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
			&task.Status, &task.CreatedAt, &task.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Get(ctx context.Context, userID, taskID int) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching task: %w", err)
	}
	return task, nil
}

// Update menerapkan partial update dalam satu statement atomik: field nil
// dibiarkan lewat COALESCE, updated_at selalu di-bump, owner dan created_at
// tidak pernah tersentuh. Balapan dengan delete pada id yang sama berakhir
// di tepat satu dari {updated, deleted}: kalau row sudah hilang, RETURNING
// kosong dan hasilnya ErrNotFound.
func (r *TaskRepo) Update(ctx context.Context, userID, taskID int, upd TaskUpdate) (*models.Task, error) {
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title = COALESCE($1, title),
		     description = COALESCE($2, description),
		     status = COALESCE($3, status),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4 AND user_id = $5
		 RETURNING `+taskColumns,
		upd.Title, upd.Description, status, taskID, userID,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("error updating task: %w", err)
	}
	return task, nil
}

// Delete menghapus task secara permanen. Menghapus id yang sudah tidak ada
// (termasuk delete kedua kali) mengembalikan ErrNotFound, bukan sukses.
func (r *TaskRepo) Delete(ctx context.Context, userID, taskID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

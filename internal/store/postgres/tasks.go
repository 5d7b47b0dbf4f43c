package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type TasksStore struct {
	db *DB
}

func NewTasksStore(db *DB) *TasksStore {
	return &TasksStore{db: db}
}

const taskColumns = `
	t.id, t.group_id, t.title, t.description, tt.code, t.status_id,
	t.bonus_points, t.due_at, t.created_by_user_id, t.source_proposal_id, t.created_at
`

func (s *TasksStore) Insert(ctx context.Context, groupID string, spec domain.TaskSpec) (domain.Task, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO tasks (group_id, title, description, task_type_id, status_id,
			                   bonus_points, due_at, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT ` + taskColumns + `
		FROM inserted t
		JOIN task_types tt ON tt.id = t.task_type_id
	`

	t, err := scanTask(s.db.Pool.QueryRow(ctx, q, groupID, spec.Title, nullIfEmpty(spec.Description),
		spec.TaskTypeID, spec.StatusID, spec.BonusPoints, spec.DueAt, spec.CreatedByUserID))
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *TasksStore) GetByID(ctx context.Context, id string) (domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN task_types tt ON tt.id = t.task_type_id
		WHERE t.id = $1
	`

	t, err := scanTask(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TasksStore) ListForGroup(ctx context.Context, groupID string) ([]domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN task_types tt ON tt.id = t.task_type_id
		WHERE t.group_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := s.db.Pool.Query(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t            domain.Task
		idUUID       pgtype.UUID
		groupUUID    pgtype.UUID
		descText     pgtype.Text
		statusUUID   pgtype.UUID
		dueTS        pgtype.Timestamptz
		creatorUUID  pgtype.UUID
		proposalUUID pgtype.UUID
	)
	err := row.Scan(
		&idUUID,
		&groupUUID,
		&t.Title,
		&descText,
		&t.TaskTypeCode,
		&statusUUID,
		&t.BonusPoints,
		&dueTS,
		&creatorUUID,
		&proposalUUID,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}

	t.ID = uuidOrEmpty(idUUID)
	t.GroupID = uuidOrEmpty(groupUUID)
	t.Description = textOrEmpty(descText)
	t.StatusID = uuidOrEmpty(statusUUID)
	t.DueAt = timestamptzPtr(dueTS)
	t.CreatedByUserID = uuidOrEmpty(creatorUUID)
	t.SourceProposalID = uuidOrEmpty(proposalUUID)
	return t, nil
}

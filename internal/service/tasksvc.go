package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type TasksStore interface {
	Insert(ctx context.Context, groupID string, spec domain.TaskSpec) (domain.Task, error)
	GetByID(ctx context.Context, id string) (domain.Task, error)
	ListForGroup(ctx context.Context, groupID string) ([]domain.Task, error)
}

// TaskScheduler mirrors due-dated tasks into an external calendar.
type TaskScheduler interface {
	ScheduleTask(ctx context.Context, t domain.Task) error
}

type TaskService struct {
	Tasks     TasksStore
	Groups    GroupsStore
	Dicts     DictLookup
	Scheduler TaskScheduler
	Logger    *slog.Logger
}

// Create adds a task directly, outside the proposal workflow. Group
// admins only.
func (s *TaskService) Create(ctx context.Context, actor domain.User, groupID, title, description, taskTypeCode string, bonusPoints int, dueAt *time.Time) (domain.Task, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return domain.Task{}, err
	}
	if err := requireGroupAdmin(ctx, s.Groups, groupID, actor); err != nil {
		return domain.Task{}, err
	}

	title = strings.TrimSpace(title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "must not be empty"
	}
	if bonusPoints < 0 {
		fields["bonus_points"] = "must not be negative"
	}
	if len(fields) > 0 {
		return domain.Task{}, domain.NewValidationError(fields)
	}

	taskTypeID, err := s.Dicts.IDByCode(ctx, "task_types", taskTypeCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Task{}, domain.NewValidationError(map[string]string{
				"task_type_code": "unknown task type",
			})
		}
		return domain.Task{}, err
	}
	statusID, err := s.Dicts.IDByCode(ctx, "statuses", domain.StatusPending)
	if err != nil {
		return domain.Task{}, err
	}

	t, err := s.Tasks.Insert(ctx, groupID, domain.TaskSpec{
		Title:           title,
		Description:     strings.TrimSpace(description),
		TaskTypeID:      taskTypeID,
		StatusID:        statusID,
		BonusPoints:     bonusPoints,
		DueAt:           dueAt,
		CreatedByUserID: actor.ID,
	})
	if err != nil {
		return domain.Task{}, err
	}

	// Calendar sync is best effort; the task exists either way.
	if s.Scheduler != nil && t.DueAt != nil {
		if err := s.Scheduler.ScheduleTask(ctx, t); err != nil {
			logger := s.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("schedule task", "task_id", t.ID, "err", err)
		}
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, actor domain.User, taskID string) (domain.Task, error) {
	t, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := requireGroupMember(ctx, s.Groups, t.GroupID, actor); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (s *TaskService) ListForGroup(ctx context.Context, actor domain.User, groupID string) ([]domain.Task, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return nil, err
	}
	return s.Tasks.ListForGroup(ctx, groupID)
}

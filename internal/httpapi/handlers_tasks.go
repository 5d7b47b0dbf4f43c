package httpapi

import (
	"net/http"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type taskResponse struct {
	ID               string     `json:"id"`
	GroupID          string     `json:"group_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TaskType         string     `json:"task_type"`
	BonusPoints      int        `json:"bonus_points"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	CreatedByUserID  string     `json:"created_by_user_id"`
	SourceProposalID string     `json:"source_proposal_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toTaskResponse(t domain.Task) taskResponse {
	return taskResponse{
		ID:               t.ID,
		GroupID:          t.GroupID,
		Title:            t.Title,
		Description:      t.Description,
		TaskType:         t.TaskTypeCode,
		BonusPoints:      t.BonusPoints,
		DueAt:            t.DueAt,
		CreatedByUserID:  t.CreatedByUserID,
		SourceProposalID: t.SourceProposalID,
		CreatedAt:        t.CreatedAt,
	}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TaskType    string     `json:"task_type"`
	BonusPoints int        `json:"bonus_points"`
	DueAt       *time.Time `json:"due_at"`
}

func (a *api) handleTasksCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	t, err := a.taskSvc.Create(r.Context(), u, r.PathValue("id"), req.Title, req.Description, req.TaskType, req.BonusPoints, req.DueAt)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (a *api) handleTasksList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	tasks, err := a.taskSvc.ListForGroup(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (a *api) handleTasksGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	t, err := a.taskSvc.Get(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toTaskResponse(t))
}

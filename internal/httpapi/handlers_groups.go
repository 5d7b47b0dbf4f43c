package httpapi

import (
	"net/http"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type groupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	GroupType   string    `json:"group_type"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toGroupResponse(g domain.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		GroupType:   g.GroupTypeCode,
		OwnerUserID: g.OwnerUserID,
		CreatedAt:   g.CreatedAt,
	}
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

func toMemberResponse(m domain.GroupMember) memberResponse {
	return memberResponse{
		UserID:   m.UserID,
		Role:     m.Role,
		IsActive: m.IsActive,
		JoinedAt: m.JoinedAt,
	}
}

type settingsResponse struct {
	TaskProposalsEnabled bool `json:"task_proposals_enabled"`
	ProposalBonusPoints  int  `json:"proposal_bonus_points"`
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	GroupType   string `json:"group_type"`
}

func (a *api) handleGroupsCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	g, err := a.groupSvc.Create(r.Context(), u, req.Name, req.Description, req.GroupType)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toGroupResponse(g))
}

func (a *api) handleGroupsGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	g, err := a.groupSvc.Get(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toGroupResponse(g))
}

func (a *api) handleGroupsMembers(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	members, err := a.groupSvc.Members(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (a *api) handleGroupsAddMember(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	m, err := a.groupSvc.AddMember(r.Context(), u, r.PathValue("id"), req.UserID, req.Role)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toMemberResponse(m))
}

func (a *api) handleGroupsGetSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	s, err := a.groupSvc.GetSettings(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, settingsResponse{
		TaskProposalsEnabled: s.TaskProposalsEnabled,
		ProposalBonusPoints:  s.ProposalBonusPoints,
	})
}

type updateSettingsRequest struct {
	TaskProposalsEnabled bool `json:"task_proposals_enabled"`
	ProposalBonusPoints  int  `json:"proposal_bonus_points"`
}

func (a *api) handleGroupsUpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req updateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	s, err := a.groupSvc.UpdateSettings(r.Context(), u, r.PathValue("id"), req.TaskProposalsEnabled, req.ProposalBonusPoints)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, settingsResponse{
		TaskProposalsEnabled: s.TaskProposalsEnabled,
		ProposalBonusPoints:  s.ProposalBonusPoints,
	})
}

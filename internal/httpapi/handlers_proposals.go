package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
	"github.com/mserjo/bossy-sub005/internal/service"
)

type proposalResponse struct {
	ID               string          `json:"id"`
	GroupID          string          `json:"group_id"`
	ProposedByUserID string          `json:"proposed_by_user_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	ProposedDetails  json.RawMessage `json:"proposed_details,omitempty"`
	Status           string          `json:"status"`
	AdminReviewNotes string          `json:"admin_review_notes,omitempty"`
	ReviewedByUserID string          `json:"reviewed_by_user_id,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	CreatedTaskID    string          `json:"created_task_id,omitempty"`
	BonusAwarded     bool            `json:"bonus_awarded"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toProposalResponse(p domain.TaskProposal) proposalResponse {
	return proposalResponse{
		ID:               p.ID,
		GroupID:          p.GroupID,
		ProposedByUserID: p.ProposedByUserID,
		Title:            p.Title,
		Description:      p.Description,
		ProposedDetails:  p.ProposedDetails,
		Status:           p.StatusCode,
		AdminReviewNotes: p.AdminReviewNotes,
		ReviewedByUserID: p.ReviewedByUserID,
		ReviewedAt:       p.ReviewedAt,
		CreatedTaskID:    p.CreatedTaskID,
		BonusAwarded:     p.BonusAwarded,
		CreatedAt:        p.CreatedAt,
	}
}

type submitProposalRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ProposedDetails json.RawMessage `json:"proposed_details"`
}

func (a *api) handleProposalsSubmit(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req submitProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	p, err := a.proposalSvc.Submit(r.Context(), u, r.PathValue("id"), req.Title, req.Description, req.ProposedDetails)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toProposalResponse(p))
}

func (a *api) handleProposalsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	proposals, err := a.proposalSvc.ListForGroup(r.Context(), u, r.PathValue("id"), r.URL.Query().Get("status"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]proposalResponse, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, toProposalResponse(p))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"proposals": out})
}

func (a *api) handleProposalsGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	p, err := a.proposalSvc.Get(r.Context(), u, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProposalResponse(p))
}

type reviewProposalRequest struct {
	StatusID                string `json:"status_id"`
	AdminReviewNotes        string `json:"admin_review_notes"`
	CreatedTaskID           string `json:"created_task_id"`
	BonusForProposalAwarded bool   `json:"bonus_for_proposal_awarded"`
}

func (a *api) handleProposalsReview(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req reviewProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	p, err := a.proposalSvc.Review(r.Context(), u, r.PathValue("id"), service.ProposalReview{
		StatusID:      req.StatusID,
		Notes:         req.AdminReviewNotes,
		CreatedTaskID: req.CreatedTaskID,
		AwardBonus:    req.BonusForProposalAwarded,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProposalResponse(p))
}

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type bonusAccountResponse struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type bonusTransactionResponse struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	BonusType   string    `json:"bonus_type"`
	Description string    `json:"description,omitempty"`
	SourceType  string    `json:"source_type,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *api) handleBonusAccount(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	acct, err := a.bonusSvc.Account(r.Context(), u, r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, bonusAccountResponse{
		GroupID: acct.GroupID,
		UserID:  acct.UserID,
		Balance: acct.Balance,
	})
}

func (a *api) handleBonusTransactions(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"limit": "must be an integer"}))
			return
		}
		limit = n
	}

	txs, err := a.bonusSvc.Transactions(r.Context(), u, r.PathValue("id"), r.PathValue("userID"), limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]bonusTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, bonusTransactionResponse{
			ID:          tx.ID,
			Amount:      tx.Amount,
			BonusType:   tx.BonusTypeCode,
			Description: tx.Description,
			SourceType:  tx.SourceType,
			SourceID:    tx.SourceID,
			CreatedAt:   tx.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

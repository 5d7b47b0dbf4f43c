package httpapi

import (
	"net/http"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type dictEntryResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	IsSystem    bool   `json:"is_system"`
}

func toDictEntryResponse(e domain.DictEntry) dictEntryResponse {
	return dictEntryResponse{
		ID:          e.ID,
		Code:        e.Code,
		Name:        e.Name,
		Description: e.Description,
		Icon:        e.Icon,
		Color:       e.Color,
		IsSystem:    e.IsSystem,
	}
}

// knownDictionary guards the table path segment; the dictionary service
// treats unknown tables as an operator problem, the API treats them as
// a plain 404.
func (a *api) knownDictionary(table string) bool {
	for _, t := range a.dictSvc.Tables() {
		if t == table {
			return true
		}
	}
	return false
}

func (a *api) handleDictionariesIndex(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"dictionaries": a.dictSvc.Tables()})
}

func (a *api) handleDictionariesList(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if !a.knownDictionary(table) {
		WriteDomainError(w, domain.ErrNotFound)
		return
	}

	entries, err := a.dictSvc.List(r.Context(), table)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]dictEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDictEntryResponse(e))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

package transport

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// Page is the envelope for every paginated listing.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int64       `json:"page"`
	PageSize int64       `json:"page_size"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func WritePage(w http.ResponseWriter, items interface{}, total, page, pageSize int64) {
	WriteJSON(w, http.StatusOK, Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

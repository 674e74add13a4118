package normalization

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ecomledger/internal/domain"
)

// Handler exposes the processor under /api/normalization/{orders|payments}/.
type Handler struct {
	processor *Processor
	prefix    string
}

// NewHTTPHandler wraps the processor with run, clear and stats endpoints.
func NewHTTPHandler(processor *Processor, prefix string) http.Handler {
	return &Handler{processor: processor, prefix: prefix}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, h.prefix), "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	recordType, err := domain.ParseRecordType(parts[0])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	batchID := strings.TrimSpace(r.URL.Query().Get("batchId"))

	switch parts[1] {
	case "run":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		summary, err := h.processor.Run(r.Context(), recordType, batchID)
		if err != nil {
			if errors.Is(err, ErrSkipLimitExceeded) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"error":   err.Error(),
					"summary": summary,
				})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summary)

	case "clear":
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deleted, err := h.processor.Clear(r.Context(), recordType, batchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})

	case "stats":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stats, err := h.processor.Stats(r.Context(), recordType, batchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

package export

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Handler serves merged ledger downloads.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET download endpoint. The format
// query parameter selects csv (default) or xlsx.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	stamp := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=merged_orders_%s.csv", stamp))
		if _, err := h.service.WriteCSV(r.Context(), w); err != nil {
			// Headers are already out; all we can do is log.
			log.Printf("[EXPORT] csv export failed: %v", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=merged_orders_%s.xlsx", stamp))
		if _, err := h.service.WriteXLSX(r.Context(), w); err != nil {
			log.Printf("[EXPORT] xlsx export failed: %v", err)
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
	}
}

package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ecomledger/internal/domain"
	"ecomledger/internal/repository"
)

// Handler exposes ingestion as an HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	rawType := r.FormValue("recordType")
	if strings.TrimSpace(rawType) == "" {
		rawType = r.FormValue("type")
	}
	recordType, err := domain.ParseRecordType(strings.TrimSpace(rawType))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	req := Request{
		RecordType: recordType,
		FileName:   header.Filename,
		FileSize:   header.Size,
		Data:       bytes.NewReader(data),
	}

	result, err := h.service.Ingest(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 && result.AcceptedRows == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// LogsHandler lists persisted ingestion issues, newest first.
type LogsHandler struct {
	logs repository.IngestionLogRepository
}

// NewLogsHandler exposes the ingestion issue log.
func NewLogsHandler(logs repository.IngestionLogRepository) http.Handler {
	return &LogsHandler{logs: logs}
}

func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	entries, err := h.logs.List(r.Context(), strings.TrimSpace(query.Get("batchId")), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

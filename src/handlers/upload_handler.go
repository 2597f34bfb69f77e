package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/folioledger/backend/src/config"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/security/validation"
	"github.com/username/folioledger/backend/src/services"
	"github.com/username/folioledger/backend/src/utils"
)

const utf8BOM = "\ufeff"

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// HandleImport accepts a Fidelity activity export, either as a multipart
// "file" field or as a raw CSV body, and runs it through the import pipeline.
// A rejected batch (format or resolution failure) maps to 400, a processed
// batch with per-row errors also maps to 400 via ImportResult.Success.
func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)

	content, err := h.extractContent(r)
	if err != nil {
		ctxLogger.Warn("Rejecting import upload", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.importService.ImportTransactions(content)
	if err != nil {
		ctxLogger.Error("Import failed unexpectedly", "error", err)
		utils.SendJSONError(w, "Import failed", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding import result", "error", err)
	}
}

// extractContent pulls the CSV text out of the request and strips a UTF-8
// byte-order mark.
func (h *UploadHandler) extractContent(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
			return "", fmt.Errorf("failed to parse upload or file too large (max %d MB)",
				config.Cfg.MaxUploadSizeBytes/(1024*1024))
		}
		file, fileHeader, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("failed to retrieve file from request, ensure the 'file' field is used")
		}
		defer file.Close()

		if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
			return "", fmt.Errorf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024))
		}
		if declared := fileHeader.Header.Get("Content-Type"); declared != "" {
			if err := validation.ValidateClientContentType(declared); err != nil {
				return "", err
			}
		}
		if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
			return "", err
		}

		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("failed to read uploaded file: %w", err)
		}
		return strings.TrimPrefix(string(data), utf8BOM), nil
	}

	if contentType != "" {
		if err := validation.ValidateClientContentType(contentType); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	// Raw bodies get the same content sniffing as multipart uploads. An empty
	// body is allowed through and yields a zero-row import.
	if len(data) > 0 {
		if _, err := validation.ValidateFileContentByMagicBytes(bytes.NewReader(data)); err != nil {
			return "", err
		}
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

// HandleGetLatestImportResult serves the most recent import result with ETag
// support so clients can poll it cheaply.
func (h *UploadHandler) HandleGetLatestImportResult(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	result, found := h.importService.LatestImportResult()
	if !found {
		utils.SendJSONError(w, "No import has been processed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etag, err := utils.GenerateETag(result); err == nil && etag != "" {
		quotedETag := fmt.Sprintf("%q", etag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else if err != nil {
		ctxLogger.Warn("Proceeding without ETag check", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding latest import result", "error", err)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/models"
	"rentflow-backend/pkg/utils"
)

const defaultMaxUploadBytes = 2048 << 10

type PaymentHandler struct {
	Payments       PaymentAPI
	Importer       Importer
	MaxUploadBytes int64
	Logger         *zap.Logger
}

func NewPaymentHandler(payments PaymentAPI, importer Importer, maxUploadBytes int64, logger *zap.Logger) *PaymentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &PaymentHandler{
		Payments:       payments,
		Importer:       importer,
		MaxUploadBytes: maxUploadBytes,
		Logger:         logger,
	}
}

type importResponse struct {
	Message string                       `json:"message"`
	Summary models.ReconciliationSummary `json:"summary"`
	Details *models.ReconciliationResult `json:"details"`
}

// ImportCSV reconciles an uploaded bank export (multipart field "file")
// against the caller's leases.
func (h *PaymentHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	landlordID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(w, http.StatusRequestEntityTooLarge, "The file is too large.")
			return
		}
		utils.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.Error(w, http.StatusUnprocessableEntity, "The file field is required.")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		utils.Error(w, http.StatusUnprocessableEntity, "The file must be a file of type: csv, txt.")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if int64(len(raw)) > h.MaxUploadBytes {
		utils.Error(w, http.StatusRequestEntityTooLarge, "The file is too large.")
		return
	}

	result, err := h.Importer.Import(r.Context(), string(raw), landlordID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, importResponse{
		Message: "CSV import completed.",
		Summary: result.Summary(),
		Details: result,
	})
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, err := h.Payments.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.Payments.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.Payments.MarkPaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListByLease(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := pathID(r, "lease")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid lease ID")
		return
	}

	payments, err := h.Payments.ListByLease(r.Context(), leaseID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	utils.JSON(w, http.StatusOK, payments)
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rentflow-backend/pkg/utils"
)

type TrustScoreHandler struct {
	Reporter TrustScoreReporter
	Logger   *zap.Logger
}

func NewTrustScoreHandler(reporter TrustScoreReporter, logger *zap.Logger) *TrustScoreHandler {
	return &TrustScoreHandler{Reporter: reporter, Logger: logger}
}

func (h *TrustScoreHandler) GetTrustScore(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(r, "tenant")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	report, err := h.Reporter.Report(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

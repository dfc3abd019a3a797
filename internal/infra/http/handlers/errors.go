package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByCode = map[string]int{
	usecase.CodeValidation:        http.StatusBadRequest,
	usecase.CodeInvalidStatus:     http.StatusBadRequest,
	usecase.CodeInvalidStage:      http.StatusBadRequest,
	usecase.CodeInvalidTransition: http.StatusUnprocessableEntity,
	usecase.CodeLeadNotFound:      http.StatusNotFound,
	usecase.CodeStatusConflict:    http.StatusConflict,
	usecase.CodeDuplicateLead:     http.StatusConflict,
	usecase.CodeSessionExpired:    http.StatusUnauthorized,
	usecase.CodePermissionDenied:  http.StatusForbidden,
}

func httpStatusFor(err error) int {
	if status, ok := statusByCode[usecase.ErrorCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": code, "message": text}. Internal details
// only go to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFor(err)
	code := usecase.ErrorCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"path": r.URL.Path,
			"code": code,
		}).Error("request failed")
	}

	writeJSON(w, status, ErrorResponse{Error: code, Message: usecase.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

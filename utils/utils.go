package utils

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/nijaru/yt-ask/errors"
	"github.com/sirupsen/logrus"
)

// HandleError writes {"error": message} with the given status.
func HandleError(w http.ResponseWriter, message string, statusCode int) {
	RespondWithJSON(w, statusCode, map[string]string{"error": message})
}

// RespondWithError maps err to its status code. Errors outside the
// taxonomy are reported as a generic 500 so internal detail stays in logs.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("RespondWithError", err, "Internal server error")
	}
	HandleError(w, appErr.Message, appErr.Code)
}

// ErrorMessage returns the client-facing text for err.
func ErrorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}

package handler

import (
	"encoding/json"
	"net/http"

	"changeflow/internal/change/models"
	dErrors "changeflow/pkg/domain-errors"
)

// changeResponse decorates the aggregate with derived fields callers want
// without re-deriving workflow rules.
type changeResponse struct {
	*models.ChangeRequest
	ExternalRef string `json:"external_ref"`
	Verdict     string `json:"verdict,omitempty"`
}

func toResponse(cr *models.ChangeRequest) changeResponse {
	resp := changeResponse{
		ChangeRequest: cr,
		ExternalRef:   cr.ExternalRef(),
	}
	if len(cr.Approvers) > 0 {
		resp.Verdict = string(cr.Verdict())
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates coded errors to HTTP statuses. Authorization
// failures are reported as not found so unprivileged callers cannot probe
// for the existence or state of changes they may not touch.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)

	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeForbidden:
		status = http.StatusNotFound
		code = dErrors.CodeNotFound
		message = "change request not found"
	case dErrors.CodeInvalidTransition, dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeValidation:
		status = http.StatusUnprocessableEntity
	case dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	case dErrors.CodeInternal:
		message = "internal error"
	}

	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/budget"
	"github.com/exploremore-ph/exploremore/internal/currency"
	"github.com/exploremore-ph/exploremore/internal/feedback"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/pricing"
	"github.com/exploremore-ph/exploremore/internal/quiz"
	"github.com/exploremore-ph/exploremore/internal/storage"
	"github.com/exploremore-ph/exploremore/internal/validation"
)

const maxBodyBytes = 1 << 20

// envelope is the error body the front end reads: success=false plus a
// message and optional per-field problems.
type envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// ok merges fields into a success envelope.
func ok(w http.ResponseWriter, status int, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	writeJSON(w, status, fields)
}

func fail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Message: msg, Code: code})
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadJSON
	}
	return validation.Struct(dst)
}

var errBadJSON = errors.New("bad json")

// writeErr maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{Message: verr.Error(), Code: "validation_error", Errors: verr.Fields})
	case errors.Is(err, errBadJSON):
		fail(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")

	case errors.Is(err, quiz.ErrValidationFailed):
		fail(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, quiz.ErrUnknownQuestionID), errors.Is(err, quiz.ErrUnknownOptionLetter):
		fail(w, http.StatusBadRequest, "invalid_answer", err.Error())
	case errors.Is(err, quiz.ErrQuizComplete):
		fail(w, http.StatusConflict, "quiz_complete", err.Error())
	case errors.Is(err, quiz.ErrSessionNotFound):
		fail(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, quiz.ErrNoDestinationsAvailable):
		logging.Ctx(r.Context()).Error().Err(err).Msg("quiz catalog has no destinations")
		fail(w, http.StatusInternalServerError, "no_destinations", err.Error())

	case errors.Is(err, account.ErrNotFound):
		fail(w, http.StatusNotFound, "not_found", "User not found.")
	case errors.Is(err, account.ErrInvalidCredentials):
		fail(w, http.StatusUnauthorized, "invalid_credentials", "Invalid password.")
	case errors.Is(err, account.ErrEmailTaken):
		fail(w, http.StatusConflict, "email_taken", "Email already exists.")
	case errors.Is(err, account.ErrAdminSignup):
		fail(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, account.ErrInvalidRole), errors.Is(err, account.ErrLastAdmin):
		fail(w, http.StatusBadRequest, "bad_request", err.Error())

	case errors.Is(err, feedback.ErrNotFound), errors.Is(err, pricing.ErrSpotNotFound),
		errors.Is(err, storage.ErrNotFound):
		fail(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, feedback.ErrEmpty), errors.Is(err, feedback.ErrTooLong),
		errors.Is(err, feedback.ErrBadDate), errors.Is(err, pricing.ErrBadRange),
		errors.Is(err, currency.ErrUnsupportedCurrency), errors.Is(err, budget.ErrNegative),
		errors.Is(err, storage.ErrInvalidKey):
		fail(w, http.StatusBadRequest, "bad_request", err.Error())

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		fail(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/exploremore-ph/exploremore/internal/audit"
	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/quiz"
)

// MountQuiz registers the quiz routes on r. Callers are anonymous unless
// an OptionalJWT middleware runs first; completions by signed-in users
// are written to the audit log.
func MountQuiz(r chi.Router, svc *quiz.Service, events audit.Appender) {
	r.Get("/questions", QuizQuestionsHandler(svc))
	r.Get("/destinations", QuizDestinationsHandler(svc))
	r.Post("/score", QuizScoreHandler(svc, events))
	r.Post("/sessions", QuizStartHandler(svc))
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", QuizGetHandler(svc))
		sr.Post("/toggle", QuizToggleHandler(svc))
		sr.Post("/next", QuizNextHandler(svc, events))
		sr.Post("/back", QuizBackHandler(svc))
		sr.Post("/reset", QuizResetHandler(svc))
		sr.Delete("/", QuizEndHandler(svc))
	})
}

func QuizQuestionsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{"questions": svc.Catalog().Questions})
	}
}

func QuizDestinationsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{"destinations": svc.Catalog().Destinations})
	}
}

func QuizStartHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, snap, err := svc.Start(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"session_id": id, "session": snap})
	}
}

func QuizGetHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"session": snap})
	}
}

type toggleReq struct {
	QuestionID int    `json:"question_id" validate:"required,gt=0"`
	Letter     string `json:"letter" validate:"required,max=2"`
}

func QuizToggleHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		snap, err := svc.Toggle(r.Context(), chi.URLParam(r, "sessionID"), req.QuestionID, req.Letter)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"session": snap})
	}
}

func QuizNextHandler(svc *quiz.Service, events audit.Appender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		snap, err := svc.Next(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if snap.Completed && snap.Result != nil {
			recordCompletion(r, events, id, *snap.Result)
		}
		ok(w, http.StatusOK, map[string]any{"session": snap})
	}
}

func QuizBackHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Back(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"session": snap})
	}
}

func QuizResetHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Reset(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"session": snap})
	}
}

func QuizEndHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// scoreReq keys answers by question id as a string, since JSON object
// keys are strings.
type scoreReq struct {
	Answers map[string][]string `json:"answers" validate:"required"`
}

func QuizScoreHandler(svc *quiz.Service, events audit.Appender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		answers := make(map[int][]string, len(req.Answers))
		for k, letters := range req.Answers {
			qid, err := strconv.Atoi(k)
			if err != nil {
				fail(w, http.StatusBadRequest, "invalid_answer", "answer keys must be question ids")
				return
			}
			answers[qid] = letters
		}
		res, err := svc.Score(answers)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		recordCompletion(r, events, "", res)
		ok(w, http.StatusOK, map[string]any{"result": res})
	}
}

func recordCompletion(r *http.Request, events audit.Appender, sessionID string, res quiz.Result) {
	sub := authmw.SubjectFromContext(r.Context())
	if events == nil || sub == "" {
		return
	}
	data := map[string]any{
		"session":     sessionID,
		"destination": res.Destination.Name,
		"score":       res.Score,
		"possible":    res.Possible,
	}
	if err := events.Append(r.Context(), audit.TypeQuizCompleted, "user:"+sub, data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("audit append failed")
	}
}

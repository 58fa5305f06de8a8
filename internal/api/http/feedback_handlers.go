package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/feedback"
)

type submitFeedbackReq struct {
	Feedback string `json:"feedback" validate:"required"`
}

// POST /submit-feedback. The author is the signed-in user, never a body field.
func SubmitFeedbackHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := authmw.UserIDFromContext(r.Context())
		if !found {
			fail(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		var req submitFeedbackReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		f, err := svc.Submit(r.Context(), userID, req.Feedback)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{
			"message":  "Feedback submitted successfully.",
			"id":       f.ID,
			"filtered": f.IsProfane,
		})
	}
}

// GET /get-feedbacks: verified, censored feedback for the landing page.
func PublicFeedbackHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublic(r.Context(), queryInt(r, "limit", 50))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"feedbacks": items})
	}
}

// GET /api/feedback?search&user&status&date&profanity&limit&offset
func AdminFeedbackListHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.List(r.Context(), feedback.Query{
			Search:    q.Get("search"),
			User:      q.Get("user"),
			Status:    q.Get("status"),
			Date:      q.Get("date"),
			Profanity: q.Get("profanity"),
			Limit:     queryInt(r, "limit", 0),
			Offset:    queryInt(r, "offset", 0),
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"feedbacks": items})
	}
}

type verifyReq struct {
	FeedbackID int64 `json:"feedbackId" validate:"required,gt=0"`
	Verified   *bool `json:"verified"`
}

// POST /verify-feedback {feedbackId, verified?}; verified defaults to true.
func VerifyFeedbackHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		var err error
		if req.Verified != nil && !*req.Verified {
			err = svc.Unverify(r.Context(), req.FeedbackID)
		} else {
			err = svc.Verify(r.Context(), req.FeedbackID)
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Feedback updated successfully."})
	}
}

type bulkReq struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

// POST /api/feedbacks/bulk-{verify,unverify,delete} {ids}
func BulkFeedbackHandler(svc *feedback.Service, action string) http.HandlerFunc {
	apply := map[string]func(context.Context, []int64) (int, error){
		"verify":   svc.BulkVerify,
		"unverify": svc.BulkUnverify,
		"delete":   svc.BulkDelete,
	}[action]
	if apply == nil {
		panic("unknown bulk feedback action: " + action)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		n, err := apply(r.Context(), req.IDs)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"affected": n})
	}
}

// DELETE /api/feedbacks/delete/{id}
func DeleteFeedbackHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			fail(w, http.StatusBadRequest, "bad_request", "invalid feedback id")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Feedback deleted."})
	}
}

func RefilterFeedbackHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Refilter(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"processed": res.Processed, "updated": res.Updated})
	}
}

func FeedbackStatsHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"stats": st})
	}
}

func ProfanityStatsHandler(svc *feedback.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.ProfanityStats(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{
			"totalProfane":      st.TotalProfane,
			"verifiedProfane":   st.VerifiedProfane,
			"unverifiedProfane": st.UnverifiedProfane,
		})
	}
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

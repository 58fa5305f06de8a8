package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/exploremore-ph/exploremore/internal/budget"
	"github.com/exploremore-ph/exploremore/internal/currency"
	"github.com/exploremore-ph/exploremore/internal/pricing"
)

func SpotsHandler(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spots, err := svc.Spots(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"spots": spots})
	}
}

// GET /api/price-breakdown/{spotId}
func PriceBreakdownHandler(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "spotId"))
		if err != nil || id <= 0 {
			fail(w, http.StatusBadRequest, "bad_request", "invalid spot id")
			return
		}
		spot, items, err := svc.Breakdown(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"spot": spot, "breakdown": items})
	}
}

// POST /api/update-price-breakdown
func UpdatePriceHandler(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in pricing.UpdateInput
		if err := decode(r, &in); err != nil {
			writeErr(w, r, err)
			return
		}
		it, err := svc.Update(r.Context(), in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Price updated.", "item": it})
	}
}

func RatesHandler(rates *currency.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := rates.Rates(r.Context())
		ok(w, http.StatusOK, map[string]any{
			"base":       rt.Base,
			"rates":      rt.Rates,
			"source":     rt.Source,
			"fetched_at": rt.FetchedAt.Unix(),
		})
	}
}

// POST /api/budget
func BudgetHandler(rates *currency.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in budget.Input
		if err := decode(r, &in); err != nil {
			writeErr(w, r, err)
			return
		}
		if in.Currency != "" && !currency.IsSupported(in.Currency) {
			fail(w, http.StatusBadRequest, "bad_request", "unsupported currency: "+in.Currency)
			return
		}
		res, err := budget.Calculate(in, rates.Rates(r.Context()))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"result": res})
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chainmetrics/internal/service"
	"chainmetrics/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) Protocol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.AggService.GetProtocol(r.Context(), id)
	if err != nil {
		h.notFoundOrFail(w, r, "protocol", id, err, service.ErrProtocolNotFound)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, p, nil); err != nil {
		h.Log.Errorf("Protocol handler error: %s", err.Error())
	}
}

func (h *Handler) Markets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.AggService.ListMarkets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, markets, nil); err != nil {
		h.Log.Errorf("Markets handler error: %s", err.Error())
	}
}

func (h *Handler) Market(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.AggService.GetMarket(r.Context(), id)
	if err != nil {
		h.notFoundOrFail(w, r, "market", id, err, service.ErrMarketNotFound)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, m, nil); err != nil {
		h.Log.Errorf("Market handler error: %s", err.Error())
	}
}

func (h *Handler) ProtocolDailySnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := strconv.ParseInt(chi.URLParam(r, "day"), 10, 64)
	if err != nil {
		h.badDay(w, r)
		return
	}

	s, err := h.AggService.GetProtocolDailySnapshot(r.Context(), id, day)
	if err != nil {
		h.notFoundOrFail(w, r, "snapshot", id, err, service.ErrSnapshotNotFound)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, s, nil); err != nil {
		h.Log.Errorf("ProtocolDailySnapshot handler error: %s", err.Error())
	}
}

func (h *Handler) MarketDailySnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := strconv.ParseInt(chi.URLParam(r, "day"), 10, 64)
	if err != nil {
		h.badDay(w, r)
		return
	}

	s, err := h.AggService.GetMarketDailySnapshot(r.Context(), id, day)
	if err != nil {
		h.notFoundOrFail(w, r, "snapshot", id, err, service.ErrSnapshotNotFound)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, s, nil); err != nil {
		h.Log.Errorf("MarketDailySnapshot handler error: %s", err.Error())
	}
}

func (h *Handler) notFoundOrFail(w http.ResponseWriter, r *http.Request, kind, id string, err, sentinel error) {
	if errors.Is(err, sentinel) {
		if werr := httputil.Error(w, r, http.StatusNotFound, "not_found", kind+" not found", map[string]any{"id": id}); werr != nil {
			h.Log.Errorf("Failed to write not_found response: %s", werr.Error())
		}
		return
	}
	h.fail(w, r, err)
}

func (h *Handler) badDay(w http.ResponseWriter, r *http.Request) {
	if err := httputil.Error(w, r, http.StatusBadRequest, "bad_request", "day must be an integer day index", nil); err != nil {
		h.Log.Errorf("Failed to write bad_request response: %s", err.Error())
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.Log.Errorf("Handler failure: %v", err)
	if werr := httputil.Error(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil); werr != nil {
		h.Log.Errorf("Failed to write error response: %s", werr.Error())
	}
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// SeatStream streams seat status changes for one departure as server-sent
// events: GET /api/buses/{busId}/seats/stream?date=YYYY-MM-DD.
func (h *Handler) SeatStream(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")
	date := r.URL.Query().Get("date")
	if _, err := h.Catalog.Bus(busID); err != nil {
		h.failErr(w, "seat stream", err)
		return
	}
	if _, err := utils.ParseJourneyDate(date); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid journey date", err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || h.SeatEvents == nil {
		h.fail(w, http.StatusNotImplemented, "Streaming not supported", nil)
		return
	}

	setupSSEHeaders(w)
	ctx := r.Context()
	events := h.SeatEvents.Subscribe(ctx, busID, date)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"busId\":%q,\"journeyDate\":%q}\n\n", busID, date)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client watching seats of %s on %s (%d watching)", busID, date, h.SeatEvents.ClientCount(busID, date)))

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize seat event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: seats\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client stopped watching seats of %s on %s", busID, date))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}

package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/message"
)

// HTTPHandler serves the read-only HTTP/1 surface:
//
//	GET /healthz     liveness
//	GET /v1/history  the history, as GetHistory returns it
//	GET /v1/status   the daemon summary
func HTTPHandler(svc *Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		h, err := svc.GetHistory(r.Context(), &message.Empty{})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h)
	})
	mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Status(r.Context(), &message.Empty{})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrItemNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrPermission):
		code = http.StatusForbidden
	case errors.Is(err, apperr.ErrClipboardAccess):
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, message.ErrorBody{
		Error:       err.Error(),
		Reason:      apperr.Reason(err),
		Remediation: apperr.HintOf(err),
	})
}

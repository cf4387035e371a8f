// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/codescan/internal/capture"
	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/scanner"
)

type handlers struct {
	scanner Scanner
	results Results
	logger  zerolog.Logger
}

func (h *handlers) start(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithContext(r.Context(), h.logger)
	if err := h.scanner.Start(r.Context()); err != nil {
		var acqErr *capture.AcquisitionError
		if errors.As(err, &acqErr) {
			logger.Warn().Err(err).Str(xglog.FieldReason, acqErr.Reason).Msg("scanner start refused")
			writeServiceUnavailable(w, acqErr.Reason, err)
			return
		}
		if errors.Is(err, scanner.ErrClosed) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "shutting_down"})
			return
		}
		logger.Error().Err(err).Msg("scanner start failed")
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.scanner.Status())
}

func (h *handlers) stop(w http.ResponseWriter, r *http.Request) {
	h.scanner.Stop()
	logger := xglog.WithContext(r.Context(), h.logger)
	logger.Debug().Msg("scanner stop requested")
	writeJSON(w, http.StatusOK, h.scanner.Status())
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.scanner.Status())
}

func (h *handlers) result(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.results.Snapshot())
}

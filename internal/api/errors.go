package api

import (
	"errors"
	"net/http"

	"grabbi/internal/catalog"
	"grabbi/internal/loyalty"
	"grabbi/internal/selection"
	"grabbi/internal/service"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrSessionNotFound, http.StatusNotFound},
	{catalog.ErrFranchiseNotFound, http.StatusNotFound},
	{catalog.ErrNoFranchiseNearby, http.StatusNotFound},
	{selection.ErrItemNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},

	{selection.ErrStoreClosed, http.StatusConflict},
	{selection.ErrNoPendingSwitch, http.StatusConflict},
	{selection.ErrSwitchPending, http.StatusConflict},
	{selection.ErrCartNotEmpty, http.StatusConflict},
	{selection.ErrCartEmpty, http.StatusConflict},
	{selection.ErrCartFranchiseMismatch, http.StatusConflict},
	{selection.ErrNoFranchiseSelected, http.StatusConflict},
	{loyalty.ErrInsufficientPoints, http.StatusConflict},
	{service.ErrOrderNotCancellable, http.StatusConflict},

	{service.ErrOutOfDeliveryArea, http.StatusUnprocessableEntity},

	{selection.ErrInvalidFranchise, http.StatusBadRequest},
	{selection.ErrInvalidItem, http.StatusBadRequest},
	{selection.ErrInvalidQuantity, http.StatusBadRequest},
	{loyalty.ErrInvalidAmount, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Unmapped errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

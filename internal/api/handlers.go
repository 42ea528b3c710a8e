package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"grabbi/internal/model"
	"grabbi/internal/service"
)

type selectFranchiseRequest struct {
	FranchiseID string `json:"franchise_id"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type redeemRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description,omitempty"`
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "sessionID"))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res *service.Result, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.CreateSession(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GET /api/sessions/{sessionID}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Session(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/restore
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Restore(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/franchise
func (s *Server) handleSelectFranchise(w http.ResponseWriter, r *http.Request) {
	var req selectFranchiseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FranchiseID) == "" {
		writeError(w, http.StatusBadRequest, "franchise_id is required")
		return
	}
	res, err := s.svc.SelectFranchise(r.Context(), sessionID(r), strings.TrimSpace(req.FranchiseID))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/franchise/nearest
func (s *Server) handleSelectNearest(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateCoords(req.Latitude, req.Longitude, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.svc.SelectNearest(r.Context(), sessionID(r), *req.Latitude, *req.Longitude)
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/franchise/confirm
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ConfirmSwitch(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/franchise/cancel
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.CancelSwitch(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// DELETE /api/sessions/{sessionID}/franchise
func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Deselect(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/location-change
func (s *Server) handleLocationChange(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.AttemptLocationChange(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/cart/items
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item model.CartItem
	if err := decodeBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	res, err := s.svc.AddItem(r.Context(), sessionID(r), item)
	s.respond(w, r, res, err)
}

// PUT /api/sessions/{sessionID}/cart/items/{productID}
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	res, err := s.svc.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productID"), *req.Quantity)
	s.respond(w, r, res, err)
}

// DELETE /api/sessions/{sessionID}/cart/items/{productID}
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "productID"))
	s.respond(w, r, res, err)
}

// DELETE /api/sessions/{sessionID}/cart
func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ClearCart(r.Context(), sessionID(r))
	s.respond(w, r, res, err)
}

// POST /api/sessions/{sessionID}/checkout
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := validateCoords(req.Latitude, req.Longitude, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.svc.Checkout(r.Context(), sessionID(r), service.CheckoutRequest{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GET /api/sessions/{sessionID}/orders?limit=
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	orders, err := s.svc.Orders(r.Context(), sessionID(r), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// POST /api/sessions/{sessionID}/orders/{orderID}/cancel
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.svc.CancelOrder(r.Context(), sessionID(r), chi.URLParam(r, "orderID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GET /api/orders/{orderID}
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.svc.Order(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GET /api/sessions/{sessionID}/loyalty?limit=
func (s *Server) handleLoyalty(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	summary, err := s.svc.Loyalty(r.Context(), sessionID(r), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// POST /api/sessions/{sessionID}/loyalty/redeem
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.svc.RedeemPoints(r.Context(), sessionID(r), req.Amount, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/franchises/nearby?lat=&lng=
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := queryCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	candidates, err := s.svc.Nearby(r.Context(), lat, lng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type nearbyFranchise struct {
		*model.Franchise
		Distance float64 `json:"distance"`
	}
	out := make([]nearbyFranchise, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, nearbyFranchise{Franchise: c.Franchise, Distance: c.Distance})
	}
	writeJSON(w, http.StatusOK, map[string]any{"franchises": out})
}

// GET /api/franchises/{franchiseID}/status
func (s *Server) handleFranchiseStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.FranchiseStatus(r.Context(), chi.URLParam(r, "franchiseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/franchises/{franchiseID}/hours
func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	hours, err := s.svc.Hours(r.Context(), chi.URLParam(r, "franchiseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hours)
}

// GET /api/delivery/quote?franchise_id=&subtotal=
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	subtotal, err := strconv.ParseFloat(r.URL.Query().Get("subtotal"), 64)
	if err != nil || subtotal < 0 {
		writeError(w, http.StatusBadRequest, "subtotal must be a non-negative number")
		return
	}
	q, err := s.svc.Quote(r.Context(), r.URL.Query().Get("franchise_id"), subtotal)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// queryLimit reads ?limit=, writing a 400 when it is malformed.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func validateCoords(lat, lng *float64, required bool) error {
	if lat == nil && lng == nil {
		if required {
			return errors.New("latitude and longitude are required")
		}
		return nil
	}
	if lat == nil || lng == nil {
		return errors.New("latitude and longitude must be given together")
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func queryCoords(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, errors.New("lat and lng are required numbers")
	}
	if err := validateCoords(&lat, &lng, true); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

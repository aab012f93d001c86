package handlers

import (
	"net/http"
)

func (h *Handler) TicketsHandler(w http.ResponseWriter, r *http.Request) {
	scope, err := h.tickets.ScopeFor(r.Context(), currentUser(r))
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	summary, err := h.tickets.Summary(r.Context(), scope)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "tickets",
		Code:    http.StatusOK,
		Data:    summary,
	})
}

type orderRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	scope, err := h.tickets.ScopeFor(r.Context(), currentUser(r))
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ErrorResponse(w, err)
		return
	}

	order, err := h.tickets.PlaceOrder(r.Context(), scope, req.Amount)
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}
	if order == nil {
		h.CreateResponse(w, Response{
			Message: "Tiket tidak mencukupi.",
			Code:    http.StatusConflict,
			Error:   http.StatusText(http.StatusConflict),
		})
		return
	}

	h.CreateResponse(w, Response{
		Message: "Pesanan tiket berhasil dibuat.",
		Code:    http.StatusCreated,
		Data:    order,
	})
}

// VerifyOrderHandler marks an order as paid. Requires can_verify_orders.
func (h *Handler) VerifyOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	order, err := h.tickets.Verify(r.Context(), orderID, currentUser(r))
	if err != nil {
		h.ErrorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "order verified",
		Code:    http.StatusOK,
		Data:    order,
	})
}

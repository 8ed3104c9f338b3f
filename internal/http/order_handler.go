package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/service"
)

type orderHandler struct {
	re       responder
	orderSvc service.OrderService
}

func newOrderHandler(re responder, orderSvc service.OrderService) *orderHandler {
	return &orderHandler{re: re, orderSvc: orderSvc}
}

func (h *orderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	var req placeOrderRequest
	if err := h.re.Decode(r, &req); err != nil {
		h.re.Error(w, r, err)
		return
	}

	lines := make([]service.OrderLine, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == "" {
			h.re.Error(w, r, apperr.NewInvalidOrderRequest("each item must include a productId"))
			return
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.re.Error(w, r, apperr.NewInvalidOrderRequest("each item must include a valid productId"))
			return
		}
		lines[i] = service.OrderLine{ProductID: productID, Qty: item.Qty}
	}

	placed, err := h.orderSvc.PlaceOrder(r.Context(), principal, lines)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusCreated, placeOrderResponse{
		OrderID: placed.OrderID.String(),
		Total:   money{placed.Total},
		Status:  string(placed.Status),
	})
}

func (h *orderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	orders, err := h.orderSvc.ListMyOrders(r.Context(), principal)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	responses := make([]orderResponse, len(orders))
	for i, order := range orders {
		responses[i] = newOrderResponse(order)
	}

	h.re.JSON(w, r, http.StatusOK, map[string]any{"orders": responses})
}

func (h *orderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.re.Error(w, r, apperr.OrderNotFoundErr)
		return
	}

	order, err := h.orderSvc.GetOrderByID(r.Context(), principal, orderID)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, map[string]any{"order": newOrderResponse(order)})
}

func (h *orderHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.re.Error(w, r, apperr.OrderNotFoundErr)
		return
	}

	document, err := h.orderSvc.RenderInvoice(r.Context(), principal, orderID)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%s.pdf", orderID))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(document)
}

func (h *orderHandler) ListOrdersByArtisan(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	query := r.URL.Query()

	artisanID, err := parseOptionalUUID(query.Get("artisanId"))
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	start, end, err := service.ParseOptionalDateBounds(query.Get("start"), query.Get("end"))
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	result, err := h.orderSvc.ListOrdersByArtisan(r.Context(), principal, service.ArtisanOrderQuery{
		ArtisanID: artisanID,
		Start:     start,
		End:       end,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	items := make([]artisanOrderResponse, len(result.Items))
	for i, view := range result.Items {
		items[i] = newArtisanOrderResponse(view)
	}

	h.re.JSON(w, r, http.StatusOK, artisanOrderPageResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func (h *orderHandler) GetOrderDetailForArtisan(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.re.Error(w, r, apperr.OrderNotFoundErr)
		return
	}

	artisanID, err := parseOptionalUUID(r.URL.Query().Get("artisanId"))
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	view, err := h.orderSvc.GetOrderDetailForArtisan(r.Context(), principal, orderID, artisanID)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, newArtisanOrderResponse(view))
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.ValidationErr.WrapParent(fmt.Errorf("parse uuid: %w", err))
	}
	return &id, nil
}

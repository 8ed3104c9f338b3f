package http

import (
	"net/http"
	"strconv"

	"github.com/craftedby/marketplace/internal/service"
)

type reportHandler struct {
	re        responder
	reportSvc service.ReportService
}

func newReportHandler(re responder, reportSvc service.ReportService) *reportHandler {
	return &reportHandler{re: re, reportSvc: reportSvc}
}

func (h *reportHandler) Overview(w http.ResponseWriter, r *http.Request) {
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

	overview, err := h.reportSvc.Overview(r.Context(), principal, service.ReportQuery{
		ArtisanID: artisanID,
		Start:     query.Get("start"),
		End:       query.Get("end"),
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, overviewResponse{
		RevenueTotal:  money{overview.RevenueTotal},
		OrdersCount:   overview.OrdersCount,
		UnitsSold:     overview.UnitsSold,
		AvgOrderValue: money{overview.AvgOrderValue},
		DateRange: dateRange{
			Start: overview.RangeStart.Format("2006-01-02"),
			End:   overview.RangeEnd.Format("2006-01-02"),
		},
	})
}

func (h *reportHandler) LowStock(w http.ResponseWriter, r *http.Request) {
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

	threshold, _ := strconv.Atoi(query.Get("threshold"))

	products, err := h.reportSvc.LowStock(r.Context(), principal, artisanID, threshold)
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, map[string]any{"products": newLowStockResponses(products)})
}

func (h *reportHandler) SalesDaily(w http.ResponseWriter, r *http.Request) {
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

	days, err := h.reportSvc.SalesDaily(r.Context(), principal, service.ReportQuery{
		ArtisanID: artisanID,
		Start:     query.Get("start"),
		End:       query.Get("end"),
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	responses := make([]dailySalesResponse, len(days))
	for i, day := range days {
		responses[i] = dailySalesResponse{
			Date:    day.Date.Format("2006-01-02"),
			Revenue: money{day.Revenue},
			Orders:  day.OrdersCount,
			Units:   day.UnitsSold,
		}
	}

	h.re.JSON(w, r, http.StatusOK, map[string]any{"days": responses})
}

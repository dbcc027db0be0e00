package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
	"github.com/vbarbosa/retail-pos/internal/core/service"
)

const identityHeader = "X-Identity"

// HTTPHandler is the collaborator surface for the menu layer: it carries the
// acting identity per request and translates terminal outcomes into JSON,
// never leaking raw store errors.
type HTTPHandler struct {
	sales   *service.SaleService
	catalog *service.CatalogService
	log     *logrus.Logger
}

func NewHTTPHandler(sales *service.SaleService, catalog *service.CatalogService, log *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{sales: sales, catalog: catalog, log: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/sales", h.RecordSale)
	mux.HandleFunc("/api/sales/recent", h.RecentSales)
	mux.HandleFunc("/api/role", h.Role)
	mux.HandleFunc("/api/products", h.CreateProduct)
	mux.HandleFunc("/api/products/search", h.SearchProducts)
	mux.HandleFunc("/api/products/price", h.UpdateProductPrice)
	mux.HandleFunc("/api/products/restock", h.RestockProduct)
	mux.HandleFunc("/api/products/delete", h.DeleteProduct)
	mux.HandleFunc("/api/customers", h.CreateCustomer)
	mux.HandleFunc("/api/customers/search", h.SearchCustomers)
	mux.HandleFunc("/api/stats", h.SalesStatistics)
	mux.HandleFunc("/api/revenue", h.TotalRevenue)
}

type RecordSaleRequest struct {
	RequestID  string `json:"request_id"`
	CustomerID int64  `json:"customer_id"`
	Address    string `json:"address"`
	CarrierID  *int64 `json:"carrier_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

type RecordSaleResponse struct {
	SaleID      int64  `json:"sale_id"`
	TotalAmount string `json:"total_amount"`
}

type errorResponse struct {
	Error string `json:"error"`
	Role  string `json:"role,omitempty"`
}

func (h *HTTPHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	identity := r.Header.Get(identityHeader)
	outcome, err := h.sales.RecordSale(r.Context(), identity, domain.SaleRequest{
		RequestID:  req.RequestID,
		CustomerID: req.CustomerID,
		Address:    req.Address,
		CarrierID:  req.CarrierID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"sale_id":    outcome.SaleID,
		"request_id": req.RequestID,
		"total":      outcome.TotalAmount.String(),
	}).Info("sale recorded")

	writeJSON(w, http.StatusOK, RecordSaleResponse{
		SaleID:      outcome.SaleID,
		TotalAmount: outcome.TotalAmount.StringFixed(2),
	})
}

func (h *HTTPHandler) RecentSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sales, err := h.sales.ListRecentSales(r.Context(), r.Header.Get(identityHeader), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	type row struct {
		ID       int64  `json:"id"`
		Date     string `json:"date"`
		Total    string `json:"total"`
		Customer string `json:"customer"`
		Products string `json:"products"`
	}
	out := make([]row, 0, len(sales))
	for _, s := range sales {
		out = append(out, row{
			ID:       s.ID,
			Date:     s.Date.Format("2006-01-02"),
			Total:    s.TotalAmount.StringFixed(2),
			Customer: s.Customer,
			Products: s.Products,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) Role(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = r.Header.Get(identityHeader)
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": h.sales.ResolveRole(identity).String()})
}

type productRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	StockQuantity int    `json:"stock_quantity"`
	UnitPrice     string `json:"unit_price"`
	Notes         string `json:"notes"`
	SellerID      int64  `json:"seller_id"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid unit price"})
		return
	}

	id, err := h.catalog.CreateProduct(r.Context(), r.Header.Get(identityHeader), domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		StockQuantity: req.StockQuantity,
		UnitPrice:     price,
		Notes:         req.Notes,
		SellerID:      req.SellerID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"product_id": id})
}

func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	products, err := h.catalog.SearchProducts(r.Context(), r.Header.Get(identityHeader), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	type row struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		StockQuantity int    `json:"stock_quantity"`
		UnitPrice     string `json:"unit_price"`
		SellerID      int64  `json:"seller_id"`
	}
	out := make([]row, 0, len(products))
	for _, p := range products {
		out = append(out, row{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			StockQuantity: p.StockQuantity,
			UnitPrice:     p.UnitPrice.StringFixed(2),
			SellerID:      p.SellerID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) UpdateProductPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProductID int64  `json:"product_id"`
		UnitPrice string `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid unit price"})
		return
	}
	if err := h.catalog.UpdateProductPrice(r.Context(), r.Header.Get(identityHeader), req.ProductID, price); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *HTTPHandler) RestockProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.catalog.RestockProduct(r.Context(), r.Header.Get(identityHeader), req.ProductID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restocked"})
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), r.Header.Get(identityHeader), req.ProductID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *HTTPHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name      string `json:"name"`
		Sex       string `json:"sex"`
		BirthDate string `json:"birth_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, err := h.catalog.CreateCustomer(r.Context(), r.Header.Get(identityHeader), domain.Customer{
		Name:      req.Name,
		Sex:       req.Sex,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"customer_id": id})
}

func (h *HTTPHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	customers, err := h.catalog.SearchCustomers(r.Context(), r.Header.Get(identityHeader), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *HTTPHandler) SalesStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sets, err := h.catalog.SalesStatistics(r.Context(), r.Header.Get(identityHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *HTTPHandler) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	total, err := h.catalog.TotalRevenue(r.Context(), r.Header.Get(identityHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total": total.StringFixed(2)})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps a terminal outcome onto a status and a human-readable
// message. Transient and unknown failures are logged with their cause and
// reported generically.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: denied.Error(), Role: denied.Role.String()})
		return
	}

	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: stock.Error()})
		return
	}

	var integrity *domain.IntegrityError
	if errors.As(err, &integrity) {
		// The wrapped driver error carries schema and constraint names;
		// only the offending relation may reach the client.
		msg := "integrity violation"
		if integrity.Relation != "" {
			msg = "integrity violation on " + integrity.Relation
		}
		h.log.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Warn("integrity violation")
		writeJSON(w, http.StatusConflict, errorResponse{Error: msg})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "duplicate request"})
	default:
		h.log.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sticker-pricer/internal/pricing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server exposes the pricing engine over JSON. The tables and catalog are
// read-only, so handlers share them without locking.
type Server struct {
	tables  *pricing.Tables
	catalog *pricing.Catalog
	logger  *zap.Logger
	newID   func() string
}

func NewServer(tables *pricing.Tables, catalog *pricing.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		tables:  tables,
		catalog: catalog,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/pricing", func(r chi.Router) {
		r.Get("/tiers", s.handleTiers)
		r.Get("/products", s.handleProducts)
		r.Get("/products/{name}", s.handleProduct)
		r.Post("/quote", s.handleQuote)
	})
	return r
}

type quoteRequest struct {
	Product           string           `json:"product"`
	Width             float64          `json:"width"`
	Height            float64          `json:"height"`
	AreaUnits         float64          `json:"area_units"`
	Quantity          int              `json:"quantity"`
	RushOrder         bool             `json:"rush_order"`
	WhiteInk          pricing.WhiteInk `json:"white_ink"`
	VibrancyBoost     bool             `json:"vibrancy_boost"`
	WholesaleApproved bool             `json:"wholesale_approved"`
}

type quoteResponse struct {
	QuoteID   string         `json:"quote_id"`
	Product   string         `json:"product"`
	AreaUnits float64        `json:"area_units"`
	Quantity  int            `json:"quantity"`
	Result    pricing.Result `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errUnknownProduct = errors.New("unknown product")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"area_tiers":     len(s.tables.BasePricing),
		"quantity_tiers": len(s.tables.QuantityDiscounts),
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tables)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Lines())
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	line, ok := s.catalog.Line(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errUnknownProduct.Error()})
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var in quoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	product := in.Product
	if product == "" {
		product = pricing.Vinyl.Name
	}
	line, ok := s.catalog.Line(product)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errUnknownProduct.Error() + ": " + product})
		return
	}

	finish, err := in.WhiteInk.Multiplier()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	area := in.AreaUnits
	if !(area > 0) {
		area = pricing.AreaFromDimensions(in.Width, in.Height)
	}

	req := pricing.Request{
		AreaUnits:         area,
		Quantity:          in.Quantity,
		RushOrder:         in.RushOrder,
		FinishMultiplier:  finish,
		VibrancyBoost:     in.VibrancyBoost,
		WholesaleApproved: in.WholesaleApproved,
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		QuoteID:   s.newID(),
		Product:   line.Name,
		AreaUnits: area,
		Quantity:  in.Quantity,
		Result:    s.tables.Quote(line, req),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

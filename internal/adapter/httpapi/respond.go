package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/example/shop-checkout/internal/domain"
	"go.uber.org/zap"
)

type errorBody struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stock *domain.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		available := stock.Available
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), ProductID: stock.ProductID, Available: &available})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// clientIP — первый адрес из X-Forwarded-For, иначе адрес соединения.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

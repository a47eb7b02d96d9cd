package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/usecase"
	"github.com/example/shop-checkout/internal/vnpay"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UseCases — сценарии, которые обслуживает HTTP-слой.
type UseCases struct {
	Checkout       usecase.Checkout
	Notification   usecase.ProcessNotification
	PaymentReturn  usecase.PaymentReturn
	GetCart        usecase.GetCart
	SetCartItem    usecase.SetCartItem
	RemoveCartItem usecase.RemoveCartItem
	GetOrder       usecase.GetOrderByID
	ListOrders     usecase.ListCustomerOrders
}

type Server struct {
	Router *mux.Router
	uc     UseCases
	log    *zap.Logger
}

func NewServer(uc UseCases, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{Router: mux.NewRouter(), uc: uc, log: log}
	s.Router.Use(requestID, accessLog(log))

	// Обратные вызовы шлюза приходят без идентификации покупателя.
	s.Router.HandleFunc("/api/checkout/vnpay-ipn", s.handleIPN).Methods(http.MethodGet, http.MethodPost)
	s.Router.HandleFunc("/api/checkout/vnpay-return", s.handleReturn).Methods(http.MethodGet)

	api := s.Router.PathPrefix("/api").Subrouter()
	api.Use(requireCustomer)
	api.HandleFunc("/checkout", s.handleCheckout).Methods(http.MethodPost)
	api.HandleFunc("/cart", s.handleGetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart/items/{productId:[0-9]+}", s.handleSetCartItem).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{productId:[0-9]+}", s.handleRemoveCartItem).Methods(http.MethodDelete)
	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods(http.MethodGet)
	return s
}

type checkoutRequest struct {
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	ShippingAddress string               `json:"shipping_address"`
	Locale          string               `json:"locale"`
}

// handleCheckout: для VnPay — 302 на шлюз (или JSON с payment_url, если клиент
// просит application/json), для COD — 201 с заказом.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = domain.PaymentVNPay
	}
	res, err := s.uc.Checkout.Execute(r.Context(), usecase.CheckoutRequest{
		CheckoutInput: usecase.CheckoutInput{
			CustomerID:      customerFrom(r.Context()),
			PaymentMethod:   body.PaymentMethod,
			ShippingAddress: body.ShippingAddress,
		},
		ClientIP: clientIP(r),
		Locale:   body.Locale,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.PaymentURL == "" {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	http.Redirect(w, r, res.PaymentURL, http.StatusFound)
}

type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// handleIPN всегда отвечает 200: исход передаётся кодом в теле.
func (s *Server) handleIPN(w http.ResponseWriter, r *http.Request) {
	p, err := gatewayParams(r)
	if err != nil {
		writeJSON(w, http.StatusOK, ipnResponse{RspCode: string(vnpay.ReasonUnknown), Message: vnpay.ReasonUnknown.Message()})
		return
	}
	res := s.uc.Notification.Execute(r.Context(), p)
	writeJSON(w, http.StatusOK, ipnResponse{RspCode: string(res.Reason), Message: res.Message()})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	p := vnpay.Parse(r.URL.Query())
	writeJSON(w, http.StatusOK, s.uc.PaymentReturn.Execute(r.Context(), p))
}

type setCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := s.uc.GetCart.Execute(r.Context(), customerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetCartItem(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	var body setCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if err := s.uc.SetCartItem.Execute(r.Context(), customerFrom(r.Context()), productID, body.Quantity); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err := s.uc.RemoveCartItem.Execute(r.Context(), customerFrom(r.Context()), productID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.uc.ListOrders.Execute(r.Context(), customerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	details, err := s.uc.GetOrder.Execute(r.Context(), customerFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// gatewayParams собирает vnp_-поля из query string и, для POST, из формы.
func gatewayParams(r *http.Request) (vnpay.Params, error) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return vnpay.Parse(r.Form), nil
	}
	return vnpay.Parse(r.URL.Query()), nil
}

package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/auth"
	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/application"
	"giftify/internal/service/order/domain"
)

const maxBodyBytes = 1 << 20

// Services are the use cases exposed over HTTP.
type Services struct {
	Orders  *application.OrderApplicationService
	Wallet  *application.WalletApplicationService
	Carts   *application.CartService
	Catalog *application.CatalogService
	Users   *application.UserService
}

// OrderHandler serves the REST API.
type OrderHandler struct {
	svc         Services
	tracer      trace.Tracer
	debugErrors bool
}

func NewOrderHandler(svc Services, tracer trace.Tracer, debugErrors bool) *OrderHandler {
	return &OrderHandler{svc: svc, tracer: tracer, debugErrors: debugErrors}
}

// Routes builds the router.
func (h *OrderHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(h.traceRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Get("/brands", h.listBrands)
		r.Get("/brands/{brandId}", h.getBrand)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/users/me", h.profile)

			r.Get("/cart", h.getCart)
			r.Post("/cart/items", h.addCartItem)
			r.Put("/cart/items/{variantId}", h.updateCartItem)
			r.Delete("/cart/items/{variantId}", h.removeCartItem)
			r.Delete("/cart", h.clearCart)

			r.Post("/orders/create", h.createOrder)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderId}", h.getOrder)
			r.Delete("/orders/{orderId}", h.cancelOrder)

			r.Get("/wallet", h.getWallet)
			r.Get("/wallet/transactions", h.listTransactions)
			r.Post("/wallet/topup", h.topUp)
		})
	})
	return r
}

// traceRequests continues the caller's trace and logs one line per request.
func (h *OrderHandler) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := h.tracer.Start(ctx, "HTTP "+r.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		span.SetName("HTTP " + r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", ww.Status()),
		)
		if ww.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		logger.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}

type identityKey struct{}

func (h *OrderHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			h.fail(w, r, domain.ErrInvalidToken.WithMessage("Missing bearer token"))
			return
		}
		identity, err := h.svc.Users.Authenticate(r.Context(), strings.TrimSpace(raw))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("user.id", identity.UserID))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
	})
}

func currentUser(r *http.Request) string {
	identity, _ := r.Context().Value(identityKey{}).(auth.Identity)
	return identity.UserID
}

func (h *OrderHandler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Users.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, resp, "Registration successful")
}

func (h *OrderHandler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Users.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Login successful")
}

func (h *OrderHandler) profile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Users.GetProfile(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Catalog.ListBrands(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) getBrand(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Catalog.GetBrand(r.Context(), chi.URLParam(r, "brandId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

type cartItemRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

func (h *OrderHandler) getCart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Carts.GetCart(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Carts.AddItem(r.Context(), currentUser(r), req.VariantID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Item added to cart")
}

func (h *OrderHandler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Carts.UpdateItem(r.Context(), currentUser(r), chi.URLParam(r, "variantId"), req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Cart updated")
}

func (h *OrderHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Carts.RemoveItem(r.Context(), currentUser(r), chi.URLParam(r, "variantId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Item removed from cart")
}

func (h *OrderHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Carts.ClearCart(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Cart cleared")
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Orders.CreateOrder(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := resp.Message
	if msg == "" {
		msg = "Order created successfully"
	}
	h.respond(w, http.StatusCreated, resp, msg)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Orders.ListOrders(r.Context(), currentUser(r), queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Orders.GetOrder(r.Context(), chi.URLParam(r, "orderId"), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Orders.CancelOrder(r.Context(), chi.URLParam(r, "orderId"), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Order cancelled and refunded")
}

type topUpRequest struct {
	Amount int64 `json:"amount"`
}

func (h *OrderHandler) getWallet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Wallet.GetWallet(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Wallet.ListTransactions(r.Context(), currentUser(r), queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "")
}

func (h *OrderHandler) topUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Wallet.TopUp(r.Context(), currentUser(r), req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp, "Wallet topped up")
}

// queryLimit reads ?limit=, clamped to application.MaxListLimit. Zero
// selects the default page size.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0
	}
	return min(limit, application.MaxListLimit)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation.WithMessage("Request body is required")
		}
		return domain.ErrValidation.WithMessage("Malformed request body: %v", err)
	}
	return nil
}

// Package httpapi exposes the ledger, shop catalog, and settlement history
// as a JSON HTTP API. Routes are versioned under /v1 and return coded error
// bodies localized from the Accept-Language header.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/tavernworks/treasury/internal/economy"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/shop"
	"github.com/tavernworks/treasury/internal/telemetry"
)

const tracerName = "treasury/httpapi"

// Server maps HTTP routes onto ledger and shop operations. It performs no
// authentication; the gateway trusts whatever actor identifiers the caller
// puts in the path.
type Server struct {
	ledger  *economy.Ledger
	shop    *shop.Service
	emitter *telemetry.Emitter
}

// NewServer creates the HTTP gateway. The emitter may be nil, in which case
// the settlement runs listing is always empty.
func NewServer(ledger *economy.Ledger, shopSvc *shop.Service, emitter *telemetry.Emitter) (*Server, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if shopSvc == nil {
		return nil, fmt.Errorf("shop service is required")
	}
	return &Server{ledger: ledger, shop: shopSvc, emitter: emitter}, nil
}

// RegisterRoutes attaches all gateway routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if s == nil || mux == nil {
		return
	}

	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/load", s.traced(s.handleAccountLoad))
	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/evict", s.traced(s.handleAccountEvict))
	mux.HandleFunc(http.MethodGet+" /v1/accounts/{actor}/stats", s.traced(s.handleAccountStats))
	mux.HandleFunc(http.MethodGet+" /v1/accounts/{actor}/transactions", s.traced(s.handleAccountTransactions))
	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/balance", s.traced(s.handleAccountSetBalance))
	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/credit", s.traced(s.handleAccountCredit))
	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/debit", s.traced(s.handleAccountDebit))
	mux.HandleFunc(http.MethodPost+" /v1/accounts/{actor}/bonus", s.traced(s.handleAccountBonus))

	mux.HandleFunc(http.MethodPost+" /v1/transfers", s.traced(s.handleTransfer))
	mux.HandleFunc(http.MethodPost+" /v1/loans", s.traced(s.handleLoanRequest))
	mux.HandleFunc(http.MethodPost+" /v1/loans/repay", s.traced(s.handleLoanRepay))
	mux.HandleFunc(http.MethodGet+" /v1/leaderboard", s.traced(s.handleLeaderboard))

	mux.HandleFunc(http.MethodGet+" /v1/shop/items", s.traced(s.handleShopList))
	mux.HandleFunc(http.MethodGet+" /v1/shop/items/{name}", s.traced(s.handleShopGet))
	mux.HandleFunc(http.MethodPut+" /v1/shop/items/{name}", s.traced(s.handleShopUpsert))
	mux.HandleFunc(http.MethodDelete+" /v1/shop/items/{name}", s.traced(s.handleShopRemove))
	mux.HandleFunc(http.MethodPost+" /v1/shop/purchase", s.traced(s.handleShopPurchase))

	mux.HandleFunc(http.MethodGet+" /v1/settlement/runs", s.traced(s.handleSettlementRuns))

	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// traced wraps a handler in a span named after the matched route pattern.
func (s *Server) traced(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.Pattern
		if name == "" {
			name = r.URL.Path
		}
		ctx, span := otel.Tracer(tracerName).Start(r.Context(), name,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		next(w, r.WithContext(ctx))
	}
}

var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// requestLocale negotiates the error message locale from Accept-Language,
// falling back to the default when the header is absent or unparsable.
func requestLocale(r *http.Request) string {
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return apperrors.DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return apperrors.DefaultLocale
	}
	_, index, _ := localeMatcher.Match(tags...)
	return supportedLocales[index].String()
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status, message := apperrors.Localize(err, requestLocale(r))
	writeJSON(w, status, errorBody{Error: errorDetail{Code: string(code), Message: message}})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeBadRequest, "decode request body", err)
	}
	return nil
}

// queryLimit reads the optional limit query parameter. Absent or malformed
// values return zero so the engine applies its own default.
func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

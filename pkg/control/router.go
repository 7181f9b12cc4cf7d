// Package control contains the administrative HTTP surface over the rate
// limiter and the executor
package control // import "github.com/joincivil/civil-social-faucet/pkg/control"

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/joincivil/civil-social-faucet/pkg/metrics"
	"github.com/joincivil/civil-social-faucet/pkg/model"
)

// maxWindowSeconds is the largest window that fits a time.Duration
const maxWindowSeconds = math.MaxInt64 / int64(time.Second)

// RateLimiter is the rate limiter surface used by the control routes
type RateLimiter interface {
	GetUser(userID string) (int64, error)
	GetAddress(address string) (int64, error)
	AddWithWindow(userID string, address string, window time.Duration) error
	Remove(userID string, address string) error
}

// Disburser sends the configured transactions to an address, bypassing
// validation and the rate limit check
type Disburser interface {
	SendTransactions(ctx context.Context, address common.Address, userID string) model.Status
}

// RouterDeps are the dependencies of the control routes
type RouterDeps struct {
	RateLimiter RateLimiter
	Disburser   Disburser

	// nil disables /metrics
	Gatherer prometheus.Gatherer

	// empty disables CORS
	CORSAllowedOrigins []string
}

// NewRouter returns the control routes
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: deps.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}).Handler)
	}

	h := &handlers{limiter: deps.RateLimiter, disburser: deps.Disburser}
	r.Get("/rate-limit", h.getRateLimit)
	r.Post("/rate-limit", h.addRateLimit)
	r.Delete("/rate-limit", h.removeRateLimit)
	r.Post("/send-tokens", h.sendTokens)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	return r
}

type handlers struct {
	limiter   RateLimiter
	disburser Disburser
}

func (h *handlers) getRateLimit(w http.ResponseWriter, r *http.Request) {
	address := r.FormValue("address")
	userID := r.FormValue("user")

	var expiry int64
	var err error
	switch {
	case address != "":
		expiry, err = h.limiter.GetAddress(address)
	case userID != "":
		expiry, err = h.limiter.GetUser(userID)
	default:
		writeText(w, http.StatusBadRequest, "'address' or 'user' must be set")
		return
	}
	if err != nil {
		log.Errorf("Error retrieving rate limit: err: %v", err)
		writeText(w, http.StatusInternalServerError, "error retrieving rate limit")
		return
	}
	writeText(w, http.StatusOK, strconv.FormatInt(expiry, 10))
}

func (h *handlers) addRateLimit(w http.ResponseWriter, r *http.Request) {
	address := r.FormValue("address")
	userID := r.FormValue("user")
	seconds := r.FormValue("seconds")
	if !isDecimal(seconds) {
		writeText(w, http.StatusBadRequest, "'seconds' parameter not given as an integer")
		return
	}
	secs, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil || secs > maxWindowSeconds {
		writeText(w, http.StatusBadRequest, "'seconds' parameter not given as an integer")
		return
	}
	err = h.limiter.AddWithWindow(userID, address, time.Duration(secs)*time.Second)
	if err != nil {
		log.Errorf("Error adding rate limit: err: %v", err)
		writeText(w, http.StatusInternalServerError, "error adding rate limit")
		return
	}
	log.Infof("Rate limited (%v, %v) for %v seconds", userID, address, secs)
	writeText(w, http.StatusOK, fmt.Sprintf("rate limited (%v, %v)", userID, address))
}

func (h *handlers) removeRateLimit(w http.ResponseWriter, r *http.Request) {
	address := r.FormValue("address")
	userID := r.FormValue("user")
	if address == "" && userID == "" {
		writeText(w, http.StatusBadRequest, "'address' or 'user' must be set")
		return
	}
	err := h.limiter.Remove(userID, address)
	if err != nil {
		log.Errorf("Error removing rate limit: err: %v", err)
		writeText(w, http.StatusInternalServerError, "error removing rate limit")
		return
	}
	log.Infof("Removed rate limit (%v, %v)", userID, address)
	writeText(w, http.StatusOK, fmt.Sprintf("removed rate limit (%v, %v)", userID, address))
}

func (h *handlers) sendTokens(w http.ResponseWriter, r *http.Request) {
	address := r.FormValue("address")
	if address == "" {
		writeText(w, http.StatusBadRequest, "'address' must be given")
		return
	}
	if !common.IsHexAddress(address) {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("invalid address %v", address))
		return
	}
	recipient := common.HexToAddress(address)
	status := h.disburser.SendTransactions(r.Context(), recipient, "")
	if status != model.StatusSuccess {
		writeText(w, http.StatusInternalServerError, status.String())
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("sent tokens to %v", recipient.Hex()))
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body)) // nolint: gosec
}

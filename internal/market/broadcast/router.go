package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tradesync/internal/market/state"
	"tradesync/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

// Controller is the set of UI commands exposed over HTTP.
type Controller interface {
	Snapshot() state.State
	FocusSymbol(symbol string)
	SetPeriod(p state.Period) error
	UpdatePreferences(patch state.PreferencesPatch) state.State
	AddSymbol(ctx context.Context, symbol string) error
	RemoveSymbol(ctx context.Context, symbol string) error
}

type routes struct {
	ctrl   Controller
	logger *zap.Logger
}

// NewRouter serves the websocket stream, the JSON state, a small command
// surface over ctrl, and Prometheus metrics.
func NewRouter(hub *Hub, ctrl Controller, reg *metrics.Registry, logger *zap.Logger) *mux.Router {
	rt := &routes{ctrl: ctrl, logger: logger}
	r := mux.NewRouter()

	r.HandleFunc("/ws", hub.ServeWS)
	r.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rt.requestLoggingMiddleware)
	api.Use(rt.timeoutMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", rt.health).Methods(http.MethodGet)
	api.HandleFunc("/state", rt.state).Methods(http.MethodGet)
	api.HandleFunc("/chart/{symbol}", rt.chart).Methods(http.MethodGet)

	api.HandleFunc("/focus/{symbol}", rt.focus).Methods(http.MethodPost)
	api.HandleFunc("/period/{period}", rt.period).Methods(http.MethodPut)
	api.HandleFunc("/preferences", rt.preferences).Methods(http.MethodPatch)
	api.HandleFunc("/watchlist/{symbol}", rt.addSymbol).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/{symbol}", rt.removeSymbol).Methods(http.MethodDelete)

	return r
}

func (rt *routes) health(w http.ResponseWriter, r *http.Request) {
	rt.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *routes) state(w http.ResponseWriter, r *http.Request) {
	rt.writeJSON(w, http.StatusOK, rt.ctrl.Snapshot())
}

// chart returns the symbol's series only when it matches the selected period.
func (rt *routes) chart(w http.ResponseWriter, r *http.Request) {
	symbol := state.NormalizeSymbol(mux.Vars(r)["symbol"])
	ser, ok := rt.ctrl.Snapshot().ChartFor(symbol)
	if !ok {
		rt.writeError(w, http.StatusNotFound, "no chart for current period")
		return
	}
	rt.writeJSON(w, http.StatusOK, ser)
}

func (rt *routes) focus(w http.ResponseWriter, r *http.Request) {
	rt.ctrl.FocusSymbol(mux.Vars(r)["symbol"])
	w.WriteHeader(http.StatusAccepted)
}

func (rt *routes) period(w http.ResponseWriter, r *http.Request) {
	p, err := state.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rt.ctrl.SetPeriod(p); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *routes) preferences(w http.ResponseWriter, r *http.Request) {
	var patch state.PreferencesPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		rt.writeError(w, http.StatusBadRequest, "invalid preferences body")
		return
	}
	st := rt.ctrl.UpdatePreferences(patch)
	rt.writeJSON(w, http.StatusOK, st.Preferences)
}

func (rt *routes) addSymbol(w http.ResponseWriter, r *http.Request) {
	if err := rt.ctrl.AddSymbol(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		rt.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *routes) removeSymbol(w http.ResponseWriter, r *http.Request) {
	if err := rt.ctrl.RemoveSymbol(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		rt.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *routes) writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rt.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (rt *routes) writeError(w http.ResponseWriter, code int, msg string) {
	rt.writeJSON(w, code, map[string]string{"error": msg})
}

// requestLoggingMiddleware logs every API request with its status and latency.
func (rt *routes) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", requestID)

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		rt.logger.Debug("request",
			zap.String("id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (rt *routes) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package httpapi is the REST surface over the analysis gateway. It
// owns request decoding, auth-derived user identity, rate limiting and
// access logging; all analysis semantics live in the gateway package.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/geohealth/gateway/internal/auth"
	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/gateway"
	"github.com/geohealth/gateway/internal/history"
	"github.com/geohealth/gateway/internal/ratelimit"
	"github.com/geohealth/gateway/internal/retry"
)

const maxImageBytes = 8 << 20

// Limiter is the slice of ratelimit.RateLimiter the handlers need.
type Limiter interface {
	Allow(ctx context.Context, userID string, limit int) (bool, error)
}

var _ Limiter = (*ratelimit.RateLimiter)(nil)

// Recorder is the slice of history.DB the handlers need. nil means
// activity history is not configured.
type Recorder interface {
	Record(ctx context.Context, entry *history.Entry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]history.Entry, error)
	GetStats(ctx context.Context) (*history.Stats, error)
}

var _ Recorder = (*history.DB)(nil)

type Handler struct {
	gw           *gateway.Gateway
	limiter      Limiter
	history      Recorder
	cache        cache.Store
	limitPerHour int
}

func NewHandler(gw *gateway.Gateway, limiter Limiter, historyDB Recorder, store cache.Store, limitPerHour int) *Handler {
	return &Handler{
		gw:           gw,
		limiter:      limiter,
		history:      historyDB,
		cache:        store,
		limitPerHour: limitPerHour,
	}
}

func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.Use(requestID)
	api.Use(h.rateLimit)

	api.HandleFunc("/analyze/image", h.AnalyzeImage).Methods("POST")
	api.HandleFunc("/analyze/location", h.AnalyzeLocation).Methods("POST")
	api.HandleFunc("/analyze/prescription", h.AnalyzePrescription).Methods("POST")
	api.HandleFunc("/analyze/mental-health", h.AnalyzeMentalHealth).Methods("POST")
	api.HandleFunc("/analyze/symptoms", h.AnalyzeSymptoms).Methods("POST")
	api.HandleFunc("/facilities", h.Facilities).Methods("GET")
	api.HandleFunc("/geocode", h.Geocode).Methods("GET")
	api.HandleFunc("/forecast", h.Forecast).Methods("GET")
	api.HandleFunc("/alerts", h.Alerts).Methods("GET")
	api.HandleFunc("/alerts/local", h.LocalAlerts).Methods("GET")
	api.HandleFunc("/city-snapshot", h.CitySnapshot).Methods("GET")
	api.HandleFunc("/bot/command", h.BotCommand).Methods("POST")
	api.HandleFunc("/history", h.History).Methods("GET")
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Callers use the ID to discard stale in-flight responses when
		// they fire overlapping requests for the same UI slot.
		w.Header().Set("X-Request-ID", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		allowed, err := h.limiter.Allow(r.Context(), claims.UserID, h.limitPerHour)
		if err != nil {
			log.Printf("❌ Rate limit check failed: %v", err)
			http.Error(w, "Rate limit check failed", http.StatusInternalServerError)
			return
		}
		if !allowed {
			log.Printf("🚫 Rate limit exceeded for user %s", claims.UserID)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type imageRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	Language    string `json:"language"`
}

func (req *imageRequest) decode() ([]byte, error) {
	if req.ImageBase64 == "" {
		return nil, errors.New("imageBase64 is required")
	}
	return base64.StdEncoding.DecodeString(req.ImageBase64)
}

func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	img, err := req.decode()
	if err != nil {
		http.Error(w, "Invalid image payload", http.StatusBadRequest)
		return
	}

	result, err := h.gw.AnalyzeImage(r.Context(), img, req.MimeType, req.Language)
	if err != nil {
		h.fail(w, "image analysis", err)
		return
	}

	h.logAccess(r, "analyze_image", result.LocationName, started, false)
	respond(w, result)
}

func (h *Handler) AnalyzeLocation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req struct {
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		Language  string  `json:"language"`
		KnownName string  `json:"knownName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, hit, err := h.gw.AnalyzeLocation(r.Context(), req.Lat, req.Lng, req.Language, req.KnownName)
	if err != nil {
		h.fail(w, "location analysis", err)
		return
	}

	h.logAccess(r, "analyze_location", result.Analysis.LocationName, started, hit)
	respond(w, result)
}

func (h *Handler) AnalyzePrescription(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	img, err := req.decode()
	if err != nil {
		http.Error(w, "Invalid image payload", http.StatusBadRequest)
		return
	}

	result, err := h.gw.AnalyzePrescription(r.Context(), img, req.MimeType, req.Language)
	if err != nil {
		h.fail(w, "prescription analysis", err)
		return
	}

	h.logAccess(r, "analyze_prescription", "prescription", started, false)
	respond(w, result)
}

func (h *Handler) AnalyzeMentalHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req struct {
		Answers  map[string]string `json:"answers"`
		Language string            `json:"language"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Answers) == 0 {
		http.Error(w, "answers are required", http.StatusBadRequest)
		return
	}

	result, err := h.gw.AnalyzeMentalHealth(r.Context(), req.Answers, req.Language)
	if err != nil {
		h.fail(w, "mental health analysis", err)
		return
	}

	h.logAccess(r, "analyze_mental_health", "check-in", started, false)
	respond(w, result)
}

func (h *Handler) AnalyzeSymptoms(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req struct {
		Symptoms string `json:"symptoms"`
		Language string `json:"language"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Symptoms == "" {
		http.Error(w, "symptoms are required", http.StatusBadRequest)
		return
	}

	result, err := h.gw.AnalyzeSymptoms(r.Context(), req.Symptoms, req.Language)
	if err != nil {
		h.fail(w, "symptom analysis", err)
		return
	}

	h.logAccess(r, "analyze_symptoms", req.Symptoms, started, false)
	respond(w, result)
}

func (h *Handler) Facilities(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}

	facilities, hit, err := h.gw.FindFacilities(r.Context(), lat, lng)
	if err != nil {
		h.fail(w, "facility search", err)
		return
	}

	h.logAccess(r, "facilities", "nearby facilities", started, hit)
	respond(w, gateway.SortByDistance(lat, lng, facilities))
}

func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	result, hit, err := h.gw.Geocode(r.Context(), query)
	if err != nil {
		h.fail(w, "geocode", err)
		return
	}

	h.logAccess(r, "geocode", result.Name, started, hit)
	respond(w, result)
}

func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}

	result, hit, err := h.gw.GetHealthForecast(r.Context(), lat, lng, r.URL.Query().Get("lang"))
	if err != nil {
		h.fail(w, "health forecast", err)
		return
	}

	h.logAccess(r, "forecast", result.LocationName, started, hit)
	respond(w, result)
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	force := r.URL.Query().Get("force") == "true"
	alerts, hit, err := h.gw.GetLiveAlerts(r.Context(), force)
	if err != nil {
		h.fail(w, "live alerts", err)
		return
	}

	h.logAccess(r, "alerts_global", "global alerts", started, hit)
	respond(w, alerts)
}

func (h *Handler) LocalAlerts(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	lat, lng, ok := coords(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"
	alerts, hit, err := h.gw.GetLocalAlerts(r.Context(), lat, lng, force)
	if err != nil {
		h.fail(w, "local alerts", err)
		return
	}

	h.logAccess(r, "alerts_local", "local alerts", started, hit)
	respond(w, alerts)
}

func (h *Handler) CitySnapshot(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	city := r.URL.Query().Get("city")
	country := r.URL.Query().Get("country")
	if city == "" || country == "" {
		http.Error(w, "city and country are required", http.StatusBadRequest)
		return
	}

	snapshot, hit, err := h.gw.GetCitySnapshot(r.Context(), city, country, r.URL.Query().Get("lang"))
	if err != nil {
		h.fail(w, "city snapshot", err)
		return
	}

	h.logAccess(r, "city_snapshot", snapshot.CityName, started, hit)
	respond(w, snapshot)
}

func (h *Handler) BotCommand(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req struct {
		Prompt         string   `json:"prompt"`
		Language       string   `json:"language"`
		AvailablePages []string `json:"availablePages"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	cmd, err := h.gw.BotCommand(r.Context(), req.Prompt, req.Language, req.AvailablePages)
	if err != nil {
		h.fail(w, "bot command", err)
		return
	}

	h.logAccess(r, "bot_command", cmd.Action, started, false)
	respond(w, cmd)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.history == nil {
		http.Error(w, "Activity history is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.history.ListByUser(r.Context(), claims.UserID, limit)
	if err != nil {
		log.Printf("❌ History lookup failed: %v", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	respond(w, entries)
}

// fail maps gateway errors onto HTTP statuses: exhausted retries are a
// "try again" 503, anything else an upstream failure.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	log.Printf("❌ %s failed: %v", op, err)
	if errors.Is(err, retry.ErrUpstreamExhausted) {
		http.Error(w, "The analysis service is busy, please try again", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "Analysis failed", http.StatusBadGateway)
}

func (h *Handler) logAccess(r *http.Request, operation, label string, started time.Time, cacheHit bool) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok || h.history == nil {
		return
	}

	entry := &history.Entry{
		UserID:    claims.UserID,
		Operation: operation,
		Label:     label,
		ElapsedMs: int(time.Since(started).Milliseconds()),
		CacheHit:  cacheHit,
	}
	go func() {
		if err := h.history.Record(context.Background(), entry); err != nil {
			log.Printf("❌ Failed to record history: %v", err)
		}
	}()
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func coords(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return 0, 0, false
	}
	return lat, lng, true
}

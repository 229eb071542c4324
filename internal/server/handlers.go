package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/m72elite/m72/pkg/syncer"
)

const (
	maxWindowDays = 366
	pushTimeout   = 30 * time.Second
)

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, calendar.ErrBadKey),
		errors.Is(err, daystore.ErrInvalidQuantity),
		errors.Is(err, daystore.ErrInvalidMeal),
		errors.Is(err, daystore.ErrInvalidWeight),
		errors.Is(err, daystore.ErrInvalidGoal),
		errors.Is(err, daystore.ErrInvalidTarget),
		errors.Is(err, daystore.ErrInvalidBurn),
		errors.Is(err, daystore.ErrInvalidURL),
		errors.Is(err, daystore.ErrInvalidFood),
		errors.Is(err, syncer.ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		utils.Log.Errorf("API error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// resolveDate parses a date key, defaulting to the selected day.
func (s *Server) resolveDate(key string) (calendar.Date, error) {
	if key == "" {
		return s.Store.SelectedDate(), nil
	}
	return calendar.Parse(key)
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be an integer in [%d, %d]", errBadRequest, name, lo, hi)
	}
	return n, nil
}

type DayResponse struct {
	Date     calendar.Date      `json:"date"`
	Exists   bool               `json:"exists"`
	Record   daystore.DayRecord `json:"record"`
	Progress daystore.Progress  `json:"progress"`
	Settings daystore.Settings  `json:"settings"`
	Meal     daystore.Meal      `json:"activeMeal"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := s.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, ok := s.Store.Lookup(d)
	settings := s.Store.Settings()
	settings.SyncToken = ""
	writeJSON(w, http.StatusOK, DayResponse{
		Date:     d,
		Exists:   ok,
		Record:   rec,
		Progress: s.Store.Progress(d),
		Settings: settings,
		Meal:     s.Store.ActiveMeal(),
	})
}

type AddLogRequest struct {
	Date   string  `json:"date"`
	FoodID string  `json:"foodId"`
	Qty    float64 `json:"qty"`
	Meal   string  `json:"meal"`
}

func (s *Server) handleAddLog(w http.ResponseWriter, r *http.Request) {
	var req AddLogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	food, ok := s.Store.FindFood(req.FoodID)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown food %q", errBadRequest, req.FoodID))
		return
	}
	meal := s.Store.ActiveMeal()
	if req.Meal != "" {
		if meal, err = daystore.ParseMeal(req.Meal); err != nil {
			writeError(w, err)
			return
		}
	}

	entry, err := s.Store.LogFood(r.Context(), d, food, req.Qty, meal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type EditLogRequest struct {
	Date string  `json:"date"`
	ID   string  `json:"id"`
	Qty  float64 `json:"qty"`
}

func (s *Server) handleEditLog(w http.ResponseWriter, r *http.Request) {
	var req EditLogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	found, err := s.Store.EditLog(r.Context(), d, req.ID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "log entry not found", http.StatusNotFound)
		return
	}
	rec, _ := s.Store.Lookup(d)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.resolveDate(q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Store.DeleteLog(r.Context(), d, q.Get("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type WaterRequest struct {
	Date  string `json:"date"`
	Delta int    `json:"delta"`
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	var req WaterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := s.Store.AdjustWater(r.Context(), d, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"water":  units,
		"litres": float64(units) * daystore.WaterUnitLitres,
	})
}

type BurnRequest struct {
	Date string  `json:"date"`
	Kcal float64 `json:"kcal"`
	Add  bool    `json:"add"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req BurnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	var burn float64
	if req.Add {
		burn, err = s.Store.AddBurn(r.Context(), d, req.Kcal)
	} else {
		burn, err = s.Store.SetBurn(r.Context(), d, req.Kcal)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"burn": burn})
}

type WeightRequest struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (s *Server) handleWeight(w http.ResponseWriter, r *http.Request) {
	var req WeightRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.resolveDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Store.RecordWeight(r.Context(), d, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Store.Weights())
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	mode := daystore.Daily
	if raw := r.URL.Query().Get("mode"); raw != "" {
		m, err := daystore.ParseMode(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		mode = m
	}
	days, err := intParam(r, "days", 7, 1, maxWindowDays)
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := s.Store.AggregateWindow(mode, s.Store.Today(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	target := s.TargetWeight
	if raw := r.URL.Query().Get("target"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, fmt.Errorf("%w: target must be a positive number", errBadRequest))
			return
		}
		target = v
	}
	writeJSON(w, http.StatusOK, s.Store.PredictGoal(target))
}

type FoodsResponse struct {
	Foods     []catalog.Food `json:"foods"`
	Favorites []string       `json:"favorites"`
}

func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	foods := s.Store.Foods()
	if q != "" {
		foods = s.Store.SearchFoods(q)
	}
	if foods == nil {
		foods = []catalog.Food{}
	}
	writeJSON(w, http.StatusOK, FoodsResponse{Foods: foods, Favorites: s.Store.Favorites()})
}

type FavoriteRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, fmt.Errorf("%w: id is required", errBadRequest))
		return
	}
	on, err := s.Store.ToggleFavorite(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": on})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 14, 1, maxWindowDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Store.History(s.Store.Today(), days))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := s.Store.Serialize()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="m72-export.json"`)
	w.Write(body)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.Pusher == nil {
		http.Error(w, "sync is not available", http.StatusServiceUnavailable)
		return
	}
	settings := s.Store.Settings()
	if settings.SyncURL == "" {
		writeError(w, syncer.ErrNotConfigured)
		return
	}
	payload, err := s.Store.Serialize()
	if err != nil {
		writeError(w, err)
		return
	}
	target := syncer.Target{URL: settings.SyncURL, Token: settings.SyncToken}

	s.pushes.Add(1)
	go func() {
		defer s.pushes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		res, err := s.Pusher.Push(ctx, target, payload)
		if err != nil {
			utils.Log.Warnf("Background sync failed: %v", err)
		}
		s.recordSync(context.Background(), target.URL, res)
	}()

	writeJSON(w, http.StatusAccepted, map[string]int{"bytes": len(payload)})
}

func (s *Server) recordSync(ctx context.Context, url string, res syncer.Result) {
	if s.DB == nil {
		return
	}
	for _, ev := range res.Events(url) {
		if _, err := s.DB.RecordSyncEvent(ctx, ev); err != nil {
			utils.Log.Errorf("Could not record sync event: %v", err)
		}
	}
}

func (s *Server) handleSyncLog(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	limit, err := intParam(r, "limit", 20, 1, 500)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := s.DB.ListRecentSyncEvents(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no database attached", http.StatusNotFound)
		return
	}
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

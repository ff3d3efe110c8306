package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ntentasd/roomsense/internal/cache"
	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/db"
	"github.com/ntentasd/roomsense/internal/energy"
	"github.com/ntentasd/roomsense/pkg/types"
	"github.com/ntentasd/roomsense/pkg/utils"
)

var errNoSummary = errors.New("no summary available")

func healthHandler(w http.ResponseWriter, r *http.Request) {
	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"state": "healthy",
	})
}

type classifyRequest struct {
	Occupancy *int     `json:"occupancy"`
	Temp      *float64 `json:"temp"`
	Hum       *float64 `json:"hum"`
	Lux       *float64 `json:"lux"`
	Noise     *float64 `json:"noise"`
	Policy    string   `json:"policy"`
}

func (req classifyRequest) reading() (types.Reading, error) {
	if req.Occupancy == nil || req.Temp == nil || req.Hum == nil || req.Lux == nil || req.Noise == nil {
		return types.Reading{}, fmt.Errorf("%w: occupancy, temp, hum, lux and noise are required", utils.ErrBadBody)
	}
	if *req.Occupancy < 0 {
		return types.Reading{}, fmt.Errorf("%w: negative occupancy", utils.ErrBadBody)
	}
	return types.Reading{
		Occupancy: *req.Occupancy,
		Temp:      *req.Temp,
		Hum:       *req.Hum,
		Lux:       *req.Lux,
		Noise:     *req.Noise,
	}, nil
}

func (app *App) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := utils.DecodeJSON(r.Body, &req); err != nil {
		utils.ReplyError(w, http.StatusBadRequest, err)
		return
	}
	reading, err := req.reading()
	if err != nil {
		utils.ReplyError(w, http.StatusBadRequest, err)
		return
	}

	policy := app.Policy
	if req.Policy != "" {
		if policy, err = compliance.ByName(req.Policy); err != nil {
			utils.ReplyError(w, http.StatusBadRequest, err)
			return
		}
	}

	v := policy.Classify(reading)
	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": utils.Body{
			"status":     v.Status,
			"pmv":        v.PMV,
			"ppd":        v.PPD,
			"energy_kwh": energy.EstimateKWh(reading.Temp),
			"policy":     policy.Name(),
		},
	})
}

func (app *App) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if app.Cache == nil {
		utils.ReplyError(w, http.StatusNotFound, errNoSummary)
		return
	}
	summary, err := cache.FetchSummary(r.Context(), app.Cache, cache.LatestSummaryKey)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		utils.ReplyError(w, http.StatusNotFound, errNoSummary)
	case err != nil:
		app.logger.Error().Err(err).Msg("failed to fetch latest summary")
		utils.ReplyError(w, http.StatusInternalServerError, err)
	default:
		utils.ReplyJSON(w, http.StatusOK, utils.Body{"data": summary})
	}
}

func (app *App) runSummaryHandler(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["run_id"])
	if err != nil {
		utils.ReplyError(w, http.StatusBadRequest, fmt.Errorf("invalid run_id: %w", err))
		return
	}

	if app.Cache != nil {
		summary, err := cache.FetchSummary(r.Context(), app.Cache, cache.SummaryKey(runID))
		if err == nil {
			utils.ReplyJSON(w, http.StatusOK, utils.Body{"data": summary})
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			app.logger.Warn().Err(err).Str("run_id", runID.String()).Msg("cache lookup failed")
		}
	}

	if app.Store == nil {
		utils.ReplyError(w, http.StatusNotFound, errNoSummary)
		return
	}
	summary, err := app.Store.GetRun(r.Context(), runID)
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		utils.ReplyError(w, http.StatusNotFound, err)
	case err != nil:
		app.logger.Error().Err(err).Str("run_id", runID.String()).Msg("failed to load run")
		utils.ReplyError(w, http.StatusInternalServerError, err)
	default:
		utils.ReplyJSON(w, http.StatusOK, utils.Body{"data": summary})
	}
}

func (app *App) runsHandler(w http.ResponseWriter, r *http.Request) {
	summary, _, err := app.Runner.Run(r.Context())
	if err != nil {
		app.logger.Error().Err(err).Msg("requested run failed")
		utils.ReplyError(w, http.StatusInternalServerError, err)
		return
	}
	utils.ReplyJSON(w, http.StatusCreated, utils.Body{"data": summary})
}

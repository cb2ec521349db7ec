package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xtding233/idle-gacha/internal/gacha"
	"github.com/xtding233/idle-gacha/internal/metrics"
)

const (
	maxPullsPerRequest = 200
	maxTrials          = 100000
	defaultTrials      = 10000
	maxSimRolls        = 20_000_000 // per simulate request, across all trials
)

type pullResp struct {
	RequestID string               `json:"request_id"`
	Banner    string               `json:"banner"`
	Preset    string               `json:"preset,omitempty"`
	Cost      int                  `json:"cost"`
	Results   []PullView           `json:"results"`
	Counts    map[gacha.Rarity]int `json:"counts"`
	Pity      int                  `json:"pity"`
	Err       string               `json:"err,omitempty"`
}

type simResp struct {
	Banner string          `json:"banner"`
	Goal   gacha.TrialGoal `json:"goal"`
	Trials int             `json:"trials"`
	Seed   uint64          `json:"seed"`
	Stats  gacha.Stats     `json:"stats"`
}

// NewRouter builds the HTTP API over hub. rec may be nil.
func NewRouter(hub *Hub, rec *metrics.Recorder, log *logrus.Entry) http.Handler {
	h := &handler{hub: hub, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if rec != nil {
		r.Use(rec.Instrument)
		r.Method(http.MethodGet, "/metrics", rec.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/banners", h.listBanners)
	r.Route("/banners/{name}", func(r chi.Router) {
		r.Get("/", h.status)
		r.Post("/pull", h.pull)
		r.Post("/batch/{preset}", h.batch)
		r.Get("/history", h.history)
		r.Post("/pity/reset", h.resetPity)
		r.Get("/simulate", h.simulate)
	})
	return r
}

type handler struct {
	hub *Hub
	log *logrus.Entry
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) (session, bool) {
	s, err := h.hub.get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

func (h *handler) listBanners(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"banners": h.hub.Names()})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// pull runs n single pulls (default 1) with no batch guarantee.
func (h *handler) pull(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	n, has, msg := parseInt(r, "n")
	if msg != "" {
		writeError(w, http.StatusBadRequest, errors.New(msg))
		return
	}
	if !has {
		n = 1
	}
	if n > maxPullsPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Errorf("n must be <= %d", maxPullsPerRequest))
		return
	}
	h.respondPull(w, s, "", n, gacha.BatchGuarantee[gacha.Rarity]{})
}

func (h *handler) batch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "preset")
	p, ok := s.Spec().Preset(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown preset %q", name))
		return
	}
	h.respondPull(w, s, p.Name, p.Size, p.Guarantee)
}

func (h *handler) respondPull(w http.ResponseWriter, s session, preset string, n int, g gacha.BatchGuarantee[gacha.Rarity]) {
	spec := s.Spec()
	resp := pullResp{
		RequestID: uuid.NewString(),
		Banner:    spec.Name,
		Preset:    preset,
		Cost:      spec.Cost.TokensForPulls(n),
	}
	log := h.log.WithFields(logrus.Fields{
		"request_id": resp.RequestID,
		"banner":     spec.Name,
		"n":          n,
	})

	start := time.Now()
	out, err := s.Pull(n, g)
	resp.Results, resp.Counts, resp.Pity = out.Results, out.Counts, out.Pity

	switch {
	case errors.Is(err, gacha.ErrInvalidBatchSize):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		// partial batch: keep what was granted
		resp.Err = err.Error()
		log.WithError(err).WithField("granted", len(out.Results)).Error("pull failed")
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	log.WithField("duration", time.Since(start)).Debug("pull served")
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"history": s.History()})
}

func (h *handler) resetPity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ResetPity()
	writeJSON(w, http.StatusOK, map[string]int{"pity": 0})
}

// simulate runs Monte Carlo trials over the banner's mechanics.
// Query: goal, trials, pulls (budget), preset, cushion, seed.
func (h *handler) simulate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	spec := s.Spec()

	goal := gacha.TrialGoal(r.URL.Query().Get("goal"))
	switch goal {
	case "":
		goal = gacha.GoalFirstGuaranteed
	case gacha.GoalFirstGuaranteed, gacha.GoalFixedBudget:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid goal %q", goal))
		return
	}

	trials, has, msg := parseInt(r, "trials")
	if !has {
		trials = defaultTrials
	}
	pulls, _, msg2 := parseInt(r, "pulls")
	cushion, _, msg3 := parseInt(r, "cushion")
	seed := uint64(time.Now().UnixNano())
	if v := r.URL.Query().Get("seed"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			msg = "invalid seed"
		}
		seed = parsed
	}
	for _, m := range []string{msg, msg2, msg3} {
		if m != "" {
			writeError(w, http.StatusBadRequest, errors.New(m))
			return
		}
	}
	if trials <= 0 || trials > maxTrials {
		writeError(w, http.StatusBadRequest, fmt.Errorf("trials must be in 1..%d", maxTrials))
		return
	}
	if goal == gacha.GoalFixedBudget && pulls <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("pulls must be > 0 for fixed_budget"))
		return
	}
	if pulls > gacha.MaxTrialPulls {
		writeError(w, http.StatusBadRequest, fmt.Errorf("pulls must be <= %d", gacha.MaxTrialPulls))
		return
	}

	params := gacha.SimParams[gacha.Rarity]{
		Table:    spec.Table,
		Pity:     spec.Pity,
		Seed:     seed,
		Cushion:  cushion,
		NumPulls: pulls,
	}
	if name := r.URL.Query().Get("preset"); name != "" {
		p, ok := spec.Preset(name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown preset %q", name))
			return
		}
		params.Batch = p
	}

	if rolls := trials * params.RollsPerTrial(goal); rolls > maxSimRolls {
		writeError(w, http.StatusBadRequest, fmt.Errorf("simulation needs up to %d rolls, limit is %d; lower trials or pulls", rolls, maxSimRolls))
		return
	}

	stats, err := gacha.RunMonteCarlo(params, goal, trials)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, simResp{Banner: spec.Name, Goal: goal, Trials: trials, Seed: seed, Stats: stats})
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

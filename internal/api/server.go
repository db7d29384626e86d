// Package api exposes the chart pipeline over HTTP.
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"

	"catdist/domain/chart"
	"catdist/domain/core"
	"catdist/internal"
	"catdist/internal/analysis/pipeline"
	"catdist/internal/analysis/scale"
	"catdist/internal/errors"
	"catdist/internal/report"
	"catdist/internal/settings"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 20

// Server wires HTTP routes to the pipeline
type Server struct {
	router  *chi.Mux
	engine  *pipeline.Engine
	cache   *settings.Cache
	logger  *internal.Logger
	maxBody int64
}

// NewServer creates the HTTP server
func NewServer(engine *pipeline.Engine, cache *settings.Cache) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		engine:  engine,
		cache:   cache,
		logger:  internal.DefaultLogger.With("api"),
		maxBody: maxBodyBytes,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/api/chart", s.handleChart)
	s.router.Post("/api/report", s.handleReport)
	s.router.Get("/api/ticks", s.handleTicks)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, errors.NotFound(fmt.Sprintf("route %s %s", r.Method, r.URL.Path)))
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chartRequest struct {
	Rows        []rowDTO `json:"rows"`
	AxisHeight  float64  `json:"axisHeight"`
	LabelHeight float64  `json:"labelHeight"`
}

// decodeChartRequest reads rows and the serialized settings. Settings may
// be given as a JSON object or as a string holding one.
func (s *Server) decodeChartRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return pipeline.Request{}, errors.WithCode(errors.CodeSizeLimit,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return pipeline.Request{}, errors.Wrap(err, "reading body")
	}
	var in chartRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return pipeline.Request{}, errors.InvalidInput(fmt.Sprintf("malformed chart request: %v", err))
	}

	raw := gjson.GetBytes(body, "settings")
	serialized := raw.Raw
	if raw.Type == gjson.String {
		serialized = raw.String()
	}
	st, err := s.cache.Get(serialized)
	if err != nil {
		return pipeline.Request{}, err
	}

	id := core.NewRequestID()
	if h := r.Header.Get("X-Request-ID"); h != "" {
		if parsed, err := core.ParseRequestID(h); err == nil {
			id = parsed
		}
	}

	req := pipeline.Request{
		ID:          id,
		Rows:        make([]chart.Row, len(in.Rows)),
		Settings:    st,
		AxisHeight:  in.AxisHeight,
		LabelHeight: in.LabelHeight,
	}
	for i, row := range in.Rows {
		req.Rows[i] = row.toRow()
		req.Rows[i].ID = core.StableRowID(string(id), i)
	}
	return req, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeChartRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Request-ID", req.ID.String())

	res, err := s.engine.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := chartResponse{chartDTO: toChartDTO(res)}

	if hasTrellis(req) {
		panels, err := s.engine.ComputePanels(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		for _, p := range panels {
			out.Panels = append(out.Panels, panelDTO{Name: p.Name, Chart: toChartDTO(p.Result)})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func hasTrellis(req pipeline.Request) bool {
	for _, r := range req.Rows {
		if r.Trellis != "" {
			return true
		}
	}
	return false
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeChartRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.engine.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(r.URL.Query().Get("title"), res))
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lo, err1 := strconv.ParseFloat(q.Get("min"), 64)
	hi, err2 := strconv.ParseFloat(q.Get("max"), 64)
	if err1 != nil || err2 != nil {
		s.writeError(w, errors.InvalidInput("min and max are required numbers"))
		return
	}
	n := scale.DefaultTickCount
	if v := q.Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.InvalidInput("n must be a positive integer"))
			return
		}
		n = parsed
	}
	linearPortion := 1.0
	if v := q.Get("linearPortion"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, errors.InvalidInput("linearPortion must be a number"))
			return
		}
		linearPortion = parsed
	}

	sc, err := scale.NewAsinh(linearPortion)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sc.SetDomain(lo, hi); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticks":         nums(sc.Ticks(n)),
		"linearPortion": num(linearPortion),
	})
}

// writeError reports err with its mapped status. Unclassified failures are
// logged in full and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	appErr := errors.FromDomain(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
		if errors.GetCode(appErr) == errors.CodeInternalError {
			appErr = errors.InternalError("internal error")
		}
	} else {
		s.logger.Debug("request rejected: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": appErr.Error(),
		"code":  errors.GetCode(appErr),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

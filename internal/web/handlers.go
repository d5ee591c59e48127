package web

import (
	"net/http"

	"github.com/JonMunkholm/geocalc/internal/core"
	"github.com/JonMunkholm/geocalc/internal/logging"
	"github.com/JonMunkholm/geocalc/internal/web/templates"
	"github.com/go-chi/render"
)

// ResultResponse is the JSON body of a successful computation. Result and
// Secondary are the status lines shown to the user; Data carries the numbers.
type ResultResponse struct {
	Result    string `json:"result"`
	Secondary string `json:"secondary,omitempty"`
	Data      any    `json:"data"`
}

// StatusResponse reports service state for monitoring.
type StatusResponse struct {
	CSVMode string             `json:"csv_mode"`
	Limiter core.LimiterStatus `json:"limiter"`
}

// handleArea computes the area of one uploaded point file.
//
//	POST /api/area  (multipart: file, mode?)
func (s *Server) handleArea(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, 1); err != nil {
		s.respondError(w, r, err)
		return
	}
	mode, err := formMode(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.ComputeArea(r.Context(), formSource(r, "file"), mode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondResult(w, r, res.String(), "", res)
}

// handleVolume computes the frustum volume between two uploaded
// cross-sections.
//
//	POST /api/volume  (multipart: bottom, top, height?, mode?)
func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, 2); err != nil {
		s.respondError(w, r, err)
		return
	}
	mode, err := formMode(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.ComputeVolume(r.Context(), core.VolumeRequest{
		Bottom: formSource(r, "bottom"),
		Top:    formSource(r, "top"),
		Height: r.FormValue("height"),
		Mode:   mode,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondResult(w, r, res.String(), res.GridString(), res)
}

// handleWeight converts a volume and density to a weight.
//
//	POST /api/weight  (form: volume, density)
func (s *Server) handleWeight(w http.ResponseWriter, r *http.Request) {
	if err := parseBody(w, r, multipartReserve); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.ComputeWeight(r.Context(), r.FormValue("volume"), r.FormValue("density"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondResult(w, r, res.String(), "", res)
}

// handleGrid suggests a grid spacing for a volume.
//
//	GET /api/grid?volume=
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ComputeGrid(r.Context(), r.URL.Query().Get("volume"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondResult(w, r, res.String(), "", res)
}

// handleStatus returns the computation limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, StatusResponse{
		CSVMode: s.cfg.Compute.CSVMode,
		Limiter: s.service.Status(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

// respondResult writes the status lines as an HTML fragment for HTMX, or as
// JSON with the full result otherwise.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, line, secondary string, data any) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Result(line, secondary).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Warn("render result", "error", err.Error())
		}
		return
	}

	render.JSON(w, r, ResultResponse{
		Result:    line,
		Secondary: secondary,
		Data:      data,
	})
}

package server

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabviz/internal/analysis"
	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/table"
)

//go:embed web/index.html
var indexHTML []byte

// multipart parts beyond this size spill to temp files
const maxMemory = 32 << 20

type uploadResponse struct {
	Columns            []string                     `json:"columns"`
	NumericalColumns   []string                     `json:"numerical_columns"`
	CategoricalColumns []string                     `json:"categorical_columns"`
	Preview            []map[string]any             `json:"preview"`
	Summary            map[string]analysis.Describe `json:"summary"`
	Rows               int                          `json:"rows"`
	Profiles           []analysis.ColumnSummary     `json:"profiles"`
	Warnings           []string                     `json:"warnings,omitempty"`
	// Records holds every processed row so the page can chart the full
	// table, not just the preview.
	Records []map[string]any `json:"records"`
}

type chartResponse struct {
	Chart string `json:"chart"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", requestIDFrom(r.Context())))
	if s.opt.MaxUploadBytes > 0 {
		if r.ContentLength > s.opt.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		// an empty file input arrives as a part without a filename,
		// which the multipart reader keeps as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	t, err := table.Load(hdr.Filename, file, table.Options{})
	if err != nil {
		log.Warn("load upload", zap.String("file", hdr.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid file format or error loading file")
		return
	}

	opt := analysis.DefaultOptions()
	opt.SampleRows = 0
	if s.opt.MaxRows > 0 {
		opt.MaxRows = s.opt.MaxRows
	}
	rep := analysis.Analyze(t, opt)
	num, cat := rep.ColumnTypes()
	log.Debug("analyzed upload",
		zap.String("file", hdr.Filename),
		zap.Int("rows", rep.Rows),
		zap.Int("columns", len(t.Columns)),
	)
	writeJSON(w, http.StatusOK, uploadResponse{
		Columns:            t.Columns,
		NumericalColumns:   num,
		CategoricalColumns: cat,
		Preview:            rep.Preview(t, s.opt.PreviewRows),
		Summary:            rep.Summary(),
		Rows:               rep.Rows,
		Profiles:           rep.Cols,
		Warnings:           rep.Warnings,
		Records:            rep.Preview(t, rep.Processed),
	})
}

func (s *Server) visualize(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodePlan(w, r)
	if !ok {
		return
	}
	fig, err := chart.Build(p, s.opt.ChartStyle)
	if err != nil {
		s.chartError(w, r, err)
		return
	}
	out, err := fig.JSON()
	if err != nil {
		s.logger.Error("serialize figure", zap.Error(err), zap.String("request_id", requestIDFrom(r.Context())))
		writeError(w, http.StatusInternalServerError, "Error serializing plot")
		return
	}
	writeJSON(w, http.StatusOK, chartResponse{Chart: out})
}

func (s *Server) visualizePNG(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodePlan(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, p, s.opt.ChartStyle); err != nil {
		s.chartError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// decodePlan reads and validates a chart request. It writes the error
// response itself and reports false on failure.
func (s *Server) decodePlan(w http.ResponseWriter, r *http.Request) (*chart.Plan, bool) {
	if s.opt.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Error reading request body")
		return nil, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || string(body) == "null" {
		writeError(w, http.StatusBadRequest, "No data provided")
		return nil, false
	}
	var req chart.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if req.Empty() {
		writeError(w, http.StatusBadRequest, "No data provided")
		return nil, false
	}
	s.logger.Debug("chart request",
		zap.String("chart_type", req.ChartType),
		zap.String("x", req.XColumn),
		zap.String("y", req.YColumn),
		zap.String("request_id", requestIDFrom(r.Context())),
	)
	p, err := req.Validate()
	if err != nil {
		s.chartError(w, r, err)
		return nil, false
	}
	return p, true
}

func (s *Server) chartError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		re *chart.RequestError
		be *chart.BuildError
	)
	switch {
	case errors.As(err, &re):
		writeError(w, http.StatusBadRequest, re.Message)
	case errors.As(err, &be):
		s.logger.Warn("build chart", zap.Error(err), zap.String("request_id", requestIDFrom(r.Context())))
		writeError(w, http.StatusBadRequest, be.Message())
	default:
		s.logger.Error("chart", zap.Error(err), zap.String("request_id", requestIDFrom(r.Context())))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	// some multipart errors flatten the cause into text
	return strings.Contains(err.Error(), "request body too large")
}

package core

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/geocalc/internal/config"
	"github.com/JonMunkholm/geocalc/internal/geometry"
	"github.com/JonMunkholm/geocalc/internal/logging"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Service runs area, volume, weight and grid computations. It holds no
// per-computation state; every call parses its own files.
type Service struct {
	limiter     *Limiter
	metrics     *Metrics
	mode        pointcsv.Mode
	maxFileSize int64
	timeout     time.Duration
}

// NewService creates a Service from configuration and registers its metrics
// with reg (nil skips registration).
func NewService(cfg *config.Config, reg prometheus.Registerer) (*Service, error) {
	mode, err := pointcsv.ParseMode(cfg.Compute.CSVMode)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &Service{
		limiter:     NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		metrics:     metrics,
		mode:        mode,
		maxFileSize: cfg.Upload.MaxFileSize,
		timeout:     cfg.Upload.Timeout,
	}, nil
}

// VolumeRequest holds the inputs of a volume computation.
type VolumeRequest struct {
	Bottom Source
	Top    Source
	Height string        // optional; empty or non-positive derives from elevation
	Mode   pointcsv.Mode // empty uses the configured default
}

// ComputeArea reads one file and returns its polygon area.
func (s *Service) ComputeArea(ctx context.Context, file Source, mode pointcsv.Mode) (*AreaResult, error) {
	return track(ctx, s, KindArea, func(ctx context.Context, id string, log *slog.Logger) (*AreaResult, error) {
		if file == nil {
			return nil, errNoFile
		}

		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()

		res, err := ReadAsync(file, s.parser(mode), s.maxFileSize).Await(ctx)
		if err != nil {
			return nil, err
		}
		s.logParsed(log, file.Name(), res)

		if res.Points.Len() < geometry.MinPolygonPoints {
			return nil, errFewPoints
		}

		area := geometry.SetArea(res.Points)
		return &AreaResult{
			ID:      id,
			File:    file.Name(),
			Points:  res.Points.Len(),
			Skipped: res.Skipped,
			AreaSqM: area,
			AreaKm2: area / geometry.SquareMetersPerKm2,
		}, nil
	})
}

// ComputeVolume reads both cross-sections concurrently and returns the
// frustum volume between them with a suggested grid spacing.
func (s *Service) ComputeVolume(ctx context.Context, req VolumeRequest) (*VolumeResult, error) {
	return track(ctx, s, KindVolume, func(ctx context.Context, id string, log *slog.Logger) (*VolumeResult, error) {
		if req.Bottom == nil || req.Top == nil {
			return nil, errNoFiles
		}

		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()

		bottom, top, err := ReadPair(ctx, req.Bottom, req.Top, s.parser(req.Mode), s.maxFileSize)
		if err != nil {
			return nil, err
		}
		s.logParsed(log, req.Bottom.Name(), bottom)
		s.logParsed(log, req.Top.Name(), top)

		if bottom.Points.Len() < geometry.MinPolygonPoints || top.Points.Len() < geometry.MinPolygonPoints {
			return nil, errFewPointsAny
		}

		user := geometry.None()
		if v, ok := parseNumber(req.Height); ok {
			user = geometry.Some(v)
		}

		h, err := geometry.ResolveHeight(user, bottom.Points, top.Points)
		if err != nil {
			var insufficient *geometry.InsufficientDataError
			if errors.As(err, &insufficient) {
				log.Debug("no usable height",
					"bottom_has_z", insufficient.BottomHasZ,
					"top_has_z", insufficient.TopHasZ,
				)
			}
			return nil, err
		}

		a1 := geometry.SetArea(bottom.Points)
		a2 := geometry.SetArea(top.Points)
		v := geometry.FrustumVolume(a1, a2, h.Value)

		return &VolumeResult{
			ID:            id,
			BottomArea:    a1,
			TopArea:       a2,
			Height:        h.Value,
			HeightDerived: h.Derived,
			Volume:        v,
			Grid:          geometry.GridSpacing(v),
		}, nil
	})
}

// ComputeWeight converts a volume to tons. Volume and density are validated
// separately so the user is told which one is wrong.
func (s *Service) ComputeWeight(ctx context.Context, volume, density string) (*WeightResult, error) {
	return track(ctx, s, KindWeight, func(ctx context.Context, id string, log *slog.Logger) (*WeightResult, error) {
		v, ok := parseNumber(volume)
		if !ok {
			return nil, errNoVolume
		}
		if !positive(v) {
			return nil, errBadVolume
		}

		d, ok := parseNumber(density)
		if !ok {
			return nil, errNoDensity
		}
		if !positive(d) {
			return nil, errBadDensity
		}

		return &WeightResult{
			ID:      id,
			Volume:  v,
			Density: d,
			Weight:  geometry.Weight(v, d),
		}, nil
	})
}

// ComputeGrid returns the suggested grid spacing for a volume. Zero is a
// valid volume here.
func (s *Service) ComputeGrid(ctx context.Context, volume string) (*GridResult, error) {
	return track(ctx, s, KindGrid, func(ctx context.Context, id string, log *slog.Logger) (*GridResult, error) {
		v, ok := parseNumber(volume)
		if !ok {
			return nil, errNoVolume
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errBadVolume
		}
		return &GridResult{Volume: v, Grid: geometry.GridSpacing(v)}, nil
	})
}

// Status returns the computation limiter state.
func (s *Service) Status() LimiterStatus {
	return s.limiter.Status()
}

// WaitForComputations blocks until in-flight file computations finish or ctx
// is done. Used during graceful shutdown.
func (s *Service) WaitForComputations(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// track assigns a computation ID, logs the outcome and records metrics.
func track[T any](ctx context.Context, s *Service, kind string, fn func(context.Context, string, *slog.Logger) (T, error)) (T, error) {
	start := time.Now()
	id := uuid.NewString()
	log := logging.WithFields(ctx, "computation_id", id, "kind", kind)

	res, err := fn(ctx, id, log)
	s.metrics.observe(kind, start, err)

	if err != nil {
		log.Warn("computation failed",
			"code", MapError(err).Code,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return res, err
	}

	log.Info("computation completed",
		"result", res,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *Service) parser(mode pointcsv.Mode) pointcsv.Parser {
	if mode == "" {
		mode = s.mode
	}
	return mode.Parser()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) logParsed(log *slog.Logger, file string, res pointcsv.Result) {
	s.metrics.addSkipped(res.Skipped)
	log.Debug("csv parsed",
		"file", file,
		"rows", res.Rows,
		"points", res.Points.Len(),
		"skipped", res.Skipped,
	)
}

// parseNumber parses a user-entered number. The bool is false for blank
// input; text that is not a number yields NaN. A lone comma is accepted as
// the decimal separator.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), true
	}
	return v, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

package core

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/JonMunkholm/geocalc/internal/config"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bottomZCSV = "x,y,z\n0,0,0\n4,0,0\n4,4,0\n0,4,0\n"
	topZCSV    = "x,y,z\n0,0,2\n3,0,2\n3,3,2\n0,3,2\n"
	flatZCSV   = "x,y,z\n0,0,0\n3,0,0\n3,3,0\n0,3,0\n"
	legacyCSV  = "id;code;east;north\n1;a;0;0\n2;b;4;0\n3;c;4;4\n4;d;0;4\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       time.Second,
		},
		Compute: config.ComputeConfig{CSVMode: "named"},
	}
}

func newTestService(t *testing.T) (*Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := NewService(testConfig(), reg)
	require.NoError(t, err)
	return svc, reg
}

func csvSource(name, data string) Source {
	return BytesSource{Filename: name, Data: []byte(data)}
}

func TestNewService_RejectsUnknownMode(t *testing.T) {
	cfg := testConfig()
	cfg.Compute.CSVMode = "fixed"
	_, err := NewService(cfg, nil)
	assert.Error(t, err)
}

func TestComputeArea(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("square", func(t *testing.T) {
		res, err := svc.ComputeArea(ctx, csvSource("a.csv", squareCSV), "")
		require.NoError(t, err)
		assert.InDelta(t, 16.0, res.AreaSqM, 1e-9)
		assert.Equal(t, 4, res.Points)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "Area: 16.00 m² (0.0000 km²)", res.String())
	})

	t.Run("positional mode", func(t *testing.T) {
		res, err := svc.ComputeArea(ctx, csvSource("legacy.csv", legacyCSV), pointcsv.ModePositional)
		require.NoError(t, err)
		assert.InDelta(t, 16.0, res.AreaSqM, 1e-9)
	})

	t.Run("no file", func(t *testing.T) {
		_, err := svc.ComputeArea(ctx, nil, "")
		assert.Equal(t, "Upload a CSV file first.", UserText(err))
	})

	t.Run("too few points", func(t *testing.T) {
		res, err := svc.ComputeArea(ctx, csvSource("a.csv", "x,y\n0,0\n1,1\nfoo,bar\n"), "")
		assert.Nil(t, res)
		assert.Equal(t, "VAL001", MapError(err).Code)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := svc.ComputeArea(ctx, csvSource("a.csv", badHeaderCSV), "")
		assert.Equal(t, "Error: Columns X and Y not found in header", UserText(err))
	})
}

func TestComputeVolume(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("user height", func(t *testing.T) {
		res, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", squareCSV),
			Top:    csvSource("top.csv", smallCSV),
			Height: "3",
		})
		require.NoError(t, err)
		assert.InDelta(t, 37.0, res.Volume, 1e-9)
		assert.False(t, res.HeightDerived)
		assert.Equal(t, "Volume: 37.00 m³", res.String())
		assert.Equal(t, "Grid: 0.86 m", res.GridString())
	})

	t.Run("comma decimal height", func(t *testing.T) {
		res, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", squareCSV),
			Top:    csvSource("top.csv", smallCSV),
			Height: "1,5",
		})
		require.NoError(t, err)
		assert.InDelta(t, 18.5, res.Volume, 1e-9)
	})

	t.Run("derived height", func(t *testing.T) {
		res, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", bottomZCSV),
			Top:    csvSource("top.csv", topZCSV),
		})
		require.NoError(t, err)
		assert.True(t, res.HeightDerived)
		assert.InDelta(t, 2.0, res.Height, 1e-9)
		assert.Equal(t, "Computed height difference: 2.00 m. Volume: 24.67 m³", res.String())
	})

	t.Run("user height wins over elevation", func(t *testing.T) {
		res, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", bottomZCSV),
			Top:    csvSource("top.csv", topZCSV),
			Height: "3",
		})
		require.NoError(t, err)
		assert.InDelta(t, 37.0, res.Volume, 1e-9)
	})

	t.Run("no height and no elevation", func(t *testing.T) {
		_, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", squareCSV),
			Top:    csvSource("top.csv", smallCSV),
		})
		assert.Equal(t, "Enter a height or provide a Z column in both files", UserText(err))
		assert.Equal(t, "HGT001", MapError(err).Code)
	})

	t.Run("equal elevations", func(t *testing.T) {
		_, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", bottomZCSV),
			Top:    csvSource("top.csv", flatZCSV),
			Height: "abc",
		})
		assert.Equal(t, "VAL002", MapError(err).Code)
	})

	t.Run("one file missing", func(t *testing.T) {
		_, err := svc.ComputeVolume(ctx, VolumeRequest{Bottom: csvSource("bottom.csv", squareCSV), Height: "3"})
		assert.Equal(t, "Upload both CSV files first.", UserText(err))
	})

	t.Run("one file unparsable", func(t *testing.T) {
		_, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", squareCSV),
			Top:    csvSource("top.csv", badHeaderCSV),
			Height: "3",
		})
		assert.Equal(t, "CSV001", MapError(err).Code)
	})

	t.Run("one file with too few points", func(t *testing.T) {
		_, err := svc.ComputeVolume(ctx, VolumeRequest{
			Bottom: csvSource("bottom.csv", squareCSV),
			Top:    csvSource("top.csv", "x,y\n0,0\n1,1\n"),
			Height: "3",
		})
		assert.Equal(t, "VAL001", MapError(err).Code)
	})
}

func TestComputeWeight(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.ComputeWeight(ctx, "37", "1.8")
	require.NoError(t, err)
	assert.InDelta(t, 66.6, res.Weight, 1e-9)
	assert.Equal(t, "Weight: 66.60 ton", res.String())

	tests := []struct {
		name    string
		volume  string
		density string
		want    string
	}{
		{"no volume", "", "1.8", "INP003"},
		{"no density", "37", " ", "INP002"},
		{"volume checked first", "", "", "INP003"},
		{"zero volume", "0", "1.8", "VAL003"},
		{"text volume", "lots", "1.8", "VAL003"},
		{"negative density", "37", "-1", "VAL004"},
		{"infinite density", "37", "Inf", "VAL004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ComputeWeight(ctx, tt.volume, tt.density)
			assert.Equal(t, tt.want, MapError(err).Code)
		})
	}
}

func TestComputeGrid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.ComputeGrid(ctx, "5000")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.Grid, 1e-9)

	res, err = svc.ComputeGrid(ctx, "0")
	require.NoError(t, err)
	assert.Zero(t, res.Grid)

	_, err = svc.ComputeGrid(ctx, "-1")
	assert.Equal(t, "VAL003", MapError(err).Code)

	_, err = svc.ComputeGrid(ctx, "")
	assert.Equal(t, "INP003", MapError(err).Code)
}

func TestService_BusyWhenSlotsTaken(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 2; i++ {
		require.True(t, svc.limiter.TryAcquire())
	}
	defer svc.limiter.Release()
	defer svc.limiter.Release()

	_, err := svc.ComputeArea(context.Background(), csvSource("a.csv", squareCSV), "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, svc.Status())
}

func TestService_Metrics(t *testing.T) {
	svc, reg := newTestService(t)
	ctx := context.Background()

	_, err := svc.ComputeArea(ctx, csvSource("a.csv", "x,y\n0,0\n4,0\nbad,row\n4,4\n0,4\n"), "")
	require.NoError(t, err)
	_, err = svc.ComputeWeight(ctx, "", "1")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	var skipped float64
	for _, mf := range families {
		switch mf.GetName() {
		case "geocalc_computations_total":
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				counts[labels["kind"]+"/"+labels["code"]] = m.GetCounter().GetValue()
			}
		case "geocalc_csv_rows_skipped_total":
			skipped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	assert.Equal(t, 1.0, counts["area/OK"])
	assert.Equal(t, 1.0, counts["weight/INP003"])
	assert.Equal(t, 1.0, skipped)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{"3", 3, true},
		{" 2.5 ", 2.5, true},
		{"2,5", 2.5, true},
		{"-4", -4, true},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	v, ok := parseNumber("1,000,5")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
}

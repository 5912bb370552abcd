package sampling

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method is the per-run bookkeeping a sampling scheme performs on recorded
// snapshots.
type Method interface {
	Name() string
	Reset()
	Observe(s Snapshot, cvs []float64)
	Finalize(res *Result) error
}

type methodFactory func(args map[string]string) (Method, error)

var methods = map[string]methodFactory{
	"unbiased":  newUnbiased,
	"histogram": newHistogramLogger,
}

// NewMethod looks up a method by name and validates its arguments.
func NewMethod(name string, args map[string]string) (Method, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownMethod, name, ListMethods())
	}
	return fn(args)
}

func ListMethods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unbiased records the trajectory and nothing else.
type Unbiased struct{}

func newUnbiased(args map[string]string) (Method, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("%w: unbiased takes no arguments, got %v", ErrInvalidMethodArgs, args)
	}
	return &Unbiased{}, nil
}

func (u *Unbiased) Name() string                { return "unbiased" }
func (u *Unbiased) Reset()                      {}
func (u *Unbiased) Observe(Snapshot, []float64) {}
func (u *Unbiased) Finalize(*Result) error      { return nil }

// HistogramLogger bins every CV over [Lower, Upper) into Bins equal bins.
type HistogramLogger struct {
	Bins         int
	Lower, Upper float64
	samples      [][]float64
}

const defaultHistogramBins = 50

func newHistogramLogger(args map[string]string) (Method, error) {
	h := &HistogramLogger{Bins: defaultHistogramBins}
	seen := map[string]bool{}
	for key, raw := range args {
		var err error
		switch key {
		case "bins":
			h.Bins, err = strconv.Atoi(raw)
		case "lower":
			h.Lower, err = strconv.ParseFloat(raw, 64)
		case "upper":
			h.Upper, err = strconv.ParseFloat(raw, 64)
		default:
			return nil, fmt.Errorf("%w: histogram does not accept %q", ErrInvalidMethodArgs, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidMethodArgs, key, raw, err)
		}
		seen[key] = true
	}
	if !seen["lower"] || !seen["upper"] {
		return nil, fmt.Errorf("%w: histogram requires lower and upper", ErrInvalidMethodArgs)
	}
	if h.Bins <= 0 {
		return nil, fmt.Errorf("%w: bins must be positive, got %d", ErrInvalidMethodArgs, h.Bins)
	}
	if !(h.Upper > h.Lower) {
		return nil, fmt.Errorf("%w: upper %g must exceed lower %g", ErrInvalidMethodArgs, h.Upper, h.Lower)
	}
	return h, nil
}

func (h *HistogramLogger) Name() string { return "histogram" }

func (h *HistogramLogger) Reset() { h.samples = nil }

func (h *HistogramLogger) Observe(_ Snapshot, cvs []float64) {
	for len(h.samples) < len(cvs) {
		h.samples = append(h.samples, nil)
	}
	for i, v := range cvs {
		h.samples[i] = append(h.samples[i], v)
	}
}

func (h *HistogramLogger) Finalize(res *Result) error {
	if len(res.CVNames) == 0 {
		return fmt.Errorf("%w: histogram needs at least one collective variable", ErrInvalidMethodArgs)
	}

	dividers := make([]float64, h.Bins+1)
	floats.Span(dividers, h.Lower, h.Upper)

	res.Histograms = make([]Histogram, len(res.CVNames))
	for i, name := range res.CVNames {
		var values []float64
		if i < len(h.samples) {
			values = h.samples[i]
		}

		inside := make([]float64, 0, len(values))
		for _, v := range values {
			if v >= h.Lower && v < h.Upper && !math.IsNaN(v) {
				inside = append(inside, v)
			}
		}
		sort.Float64s(inside)

		counts := make([]float64, h.Bins)
		if len(inside) > 0 {
			counts = stat.Histogram(counts, dividers, inside, nil)
		}

		res.Histograms[i] = Histogram{
			CV:       name,
			Dividers: append([]float64(nil), dividers...),
			Counts:   counts,
			Outside:  len(values) - len(inside),
		}
	}
	return nil
}

type CVStat struct {
	Name string
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// CVStats summarises each CV trace of a result.
func CVStats(res *Result) []CVStat {
	out := make([]CVStat, 0, len(res.CVNames))
	for i, name := range res.CVNames {
		series := res.CVSeries(i)
		if len(series) == 0 {
			continue
		}
		st := CVStat{Name: name, Min: floats.Min(series), Max: floats.Max(series)}
		if len(series) > 1 {
			st.Mean, st.Std = stat.MeanStdDev(series, nil)
		} else {
			st.Mean = series[0]
		}
		out = append(out, st)
	}
	return out
}

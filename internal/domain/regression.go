package domain

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrTooFewPoints   = errors.New("regression needs at least two points")
	ErrLengthMismatch = errors.New("x and y lengths differ")
	ErrNaNInput       = errors.New("regression input contains NaN")
	ErrConstantX      = errors.New("all x values are identical")

	// ErrEmptySeries is returned by Trend when a series has no defined points.
	ErrEmptySeries = errors.New("series has no defined points")
)

// Regression is a simple least-squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	R               float64 `json:"r"`
	PValue          float64 `json:"p_value"`
	StdErr          float64 `json:"std_err"`
	InterceptStdErr float64 `json:"intercept_std_err"`
	N               int     `json:"n"`
}

// Predict evaluates the fitted line at x.
func (r Regression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// Regress fits y on x. The p-value is two-sided for a zero slope under
// Student's t with n-2 degrees of freedom. Callers must drop NaN points
// first.
func Regress(x, y []float64) (Regression, error) {
	n := len(x)
	switch {
	case n != len(y):
		return Regression{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(y))
	case n < 2:
		return Regression{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return Regression{}, fmt.Errorf("%w at index %d", ErrNaNInput, i)
		}
	}

	xMean := stat.Mean(x, nil)
	yMean := stat.Mean(y, nil)
	var ssx, ssy, ssxy float64
	for i := range x {
		dx, dy := x[i]-xMean, y[i]-yMean
		ssx += dx * dx
		ssy += dy * dy
		ssxy += dx * dy
	}
	if ssx == 0 {
		return Regression{}, ErrConstantX
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	r := 0.0
	if ssy != 0 {
		r = ssxy / math.Sqrt(ssx*ssy)
		// Rounding can push |r| a hair past 1.
		r = math.Max(-1, math.Min(1, r))
	}

	out := Regression{Slope: slope, Intercept: intercept, R: r, N: n}

	if n == 2 {
		if y[0] == y[1] {
			out.PValue = 1
		}
		return out, nil
	}

	df := float64(n - 2)
	// Population moments, as the reference implementation uses.
	ssxm := ssx / float64(n)
	ssym := ssy / float64(n)
	out.StdErr = math.Sqrt((1 - r*r) * ssym / ssxm / df)
	out.InterceptStdErr = out.StdErr * math.Sqrt(ssxm+xMean*xMean)

	if math.Abs(r) == 1 {
		out.PValue = 0
		return out, nil
	}
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	out.PValue = 2 * dist.Survival(math.Abs(t))
	return out, nil
}

// Trend regresses a series' defined means on their period numbers.
func Trend(s Series) (Regression, error) {
	x, y := s.Defined()
	if len(x) == 0 {
		return Regression{}, ErrEmptySeries
	}
	return Regress(x, y)
}

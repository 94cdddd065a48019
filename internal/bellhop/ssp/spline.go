package ssp

import (
	"gonum.org/v1/gonum/mat"

	_ "github.com/oceanacoustics/gobellhop/internal/bellhop/blasaccel"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// BuildCubicSplineCoefs computes the not-a-knot cubic-spline coefficients
// (b, c, d per segment, with c[i] the polynomial evaluated as
// c[i] + b[i]*dz + cc[i]*dz^2 + d[i]*dz^3) for a complex-valued profile,
// following the teacher's habit of assembling the system as a gonum
// mat.Dense and solving it directly (utils/matrix.go leans on mat.Dense
// throughout) rather than hand-rolling a banded solver. The real and
// imaginary channels are solved independently since gonum's dense solve is
// real-valued.
func BuildCubicSplineCoefs(z []params.Real, c []params.Complex) (b, cc, d []params.Complex, err error) {
	n := len(z)
	if n < 3 {
		return nil, nil, nil, errTooFewNodes
	}
	re := make([]float64, n)
	im := make([]float64, n)
	for i, v := range c {
		re[i] = real(v)
		im[i] = imag(v)
	}
	mRe, errR := solveNotAKnot(z, re)
	if errR != nil {
		return nil, nil, nil, errR
	}
	mIm, errI := solveNotAKnot(z, im)
	if errI != nil {
		return nil, nil, nil, errI
	}

	b = make([]params.Complex, n-1)
	cc = make([]params.Complex, n-1)
	d = make([]params.Complex, n-1)
	for i := 0; i < n-1; i++ {
		h := z[i+1] - z[i]
		bRe := (re[i+1]-re[i])/h - h*(2*mRe[i]+mRe[i+1])/6
		bIm := (im[i+1]-im[i])/h - h*(2*mIm[i]+mIm[i+1])/6
		dRe := (mRe[i+1] - mRe[i]) / (6 * h)
		dIm := (mIm[i+1] - mIm[i]) / (6 * h)
		b[i] = complex(bRe, bIm)
		cc[i] = complex(mRe[i]/2, mIm[i]/2)
		d[i] = complex(dRe, dIm)
	}
	return b, cc, d, nil
}

// solveNotAKnot returns the second-derivative values M at each node for a
// not-a-knot cubic spline, assembled as a dense tridiagonal-plus-corners
// system and solved with mat.Dense.Solve. The end rows enforce third-
// derivative continuity across the second and second-to-last knots (the
// not-a-knot condition: segments 0/1, and n-3/n-2, are each a single cubic)
// rather than the natural-spline M[0] = M[n-1] = 0. With fewer than four
// nodes there is no third segment to pin the condition against, so this
// falls back to the natural boundary.
func solveNotAKnot(z, y []float64) ([]float64, error) {
	n := len(z)
	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = z[i+1] - z[i]
	}

	A := mat.NewDense(n, n, nil)
	rhs := mat.NewDense(n, 1, nil)
	if n >= 4 {
		A.Set(0, 0, h[1])
		A.Set(0, 1, -(h[0] + h[1]))
		A.Set(0, 2, h[0])
		A.Set(n-1, n-3, h[n-2])
		A.Set(n-1, n-2, -(h[n-3] + h[n-2]))
		A.Set(n-1, n-1, h[n-3])
	} else {
		A.Set(0, 0, 1)
		A.Set(n-1, n-1, 1)
	}
	for i := 1; i < n-1; i++ {
		hi := h[i-1]
		hi1 := h[i]
		A.Set(i, i-1, hi)
		A.Set(i, i, 2*(hi+hi1))
		A.Set(i, i+1, hi1)
		rhs.Set(i, 0, 6*((y[i+1]-y[i])/hi1-(y[i]-y[i-1])/hi))
	}
	var M mat.Dense
	if err := M.Solve(A, rhs); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = M.At(i, 0)
	}
	return out, nil
}

// BuildPCHIPCoefs computes monotone piecewise-cubic-Hermite coefficients
// using Fritsch-Carlson slope limiting, applied independently to the real
// and imaginary channels.
func BuildPCHIPCoefs(z []params.Real, c []params.Complex) (b, cc, d []params.Complex, err error) {
	n := len(z)
	if n < 2 {
		return nil, nil, nil, errTooFewNodes
	}
	re := make([]float64, n)
	im := make([]float64, n)
	for i, v := range c {
		re[i] = real(v)
		im[i] = imag(v)
	}
	mRe := pchipSlopes(z, re)
	mIm := pchipSlopes(z, im)

	b = make([]params.Complex, n-1)
	cc = make([]params.Complex, n-1)
	d = make([]params.Complex, n-1)
	for i := 0; i < n-1; i++ {
		h := z[i+1] - z[i]
		dRe := (re[i+1] - re[i]) / h
		dIm := (im[i+1] - im[i]) / h
		ccRe := (3*dRe - 2*mRe[i] - mRe[i+1]) / h
		ccIm := (3*dIm - 2*mIm[i] - mIm[i+1]) / h
		dCoefRe := (mRe[i] + mRe[i+1] - 2*dRe) / (h * h)
		dCoefIm := (mIm[i] + mIm[i+1] - 2*dIm) / (h * h)
		b[i] = complex(mRe[i], mIm[i])
		cc[i] = complex(ccRe, ccIm)
		d[i] = complex(dCoefRe, dCoefIm)
	}
	return b, cc, d, nil
}

// pchipSlopes computes the Fritsch-Carlson derivative estimate at each node.
func pchipSlopes(x, y []float64) []float64 {
	n := len(x)
	d := make([]float64, n)
	if n == 2 {
		s := (y[1] - y[0]) / (x[1] - x[0])
		d[0], d[1] = s, s
		return d
	}
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		delta[i] = (y[i+1] - y[i]) / (x[i+1] - x[i])
	}
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			d[i] = 0
			continue
		}
		h1, h2 := x[i]-x[i-1], x[i+1]-x[i]
		w1, w2 := 2*h2+h1, h2+2*h1
		d[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
	}
	d[0] = endpointSlope(x[0], x[1], x[2], delta[0], delta[1])
	d[n-1] = endpointSlope(x[n-1], x[n-2], x[n-3], delta[n-2], delta[n-3])
	return d
}

func endpointSlope(x0, x1, x2, d0, d1 float64) float64 {
	h0, h1 := x1-x0, x2-x1
	s := ((2*h0+h1)*d0 - h0*d1) / (h0 + h1)
	if s*d0 <= 0 {
		return 0
	}
	if d0*d1 <= 0 && abs(s) > 3*abs(d0) {
		return 3 * d0
	}
	return s
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

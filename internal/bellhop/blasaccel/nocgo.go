//go:build !cgo
// +build !cgo

// Package blasaccel registers a netlib BLAS backend for the cubic-spline
// coefficient solve in internal/bellhop/ssp when built with cgo.
// Pure-Go gonum BLAS is used otherwise; this file is the non-cgo no-op half
// of that swap.
package blasaccel

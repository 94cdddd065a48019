//go:build cgo
// +build cgo

// Package blasaccel registers a netlib BLAS backend for the cubic-spline
// coefficient solve in internal/bellhop/ssp when built with cgo.
// Pure-Go gonum BLAS is used otherwise; this file only swaps the backend.
package blasaccel

/*
#cgo CFLAGS: -march=native -mavx -mavx2
#cgo LDFLAGS: -lopenblas -llapacke -lgfortran -lm -lpthread
#include <cblas.h>
#include <lapacke.h>
*/
import "C"

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas64.Use(netblas.Implementation{})
	fmt.Println("gobellhop: using netlib to accelerate BLAS")
}

package ssp

import "errors"

var errTooFewNodes = errors.New("ssp: table has too few nodes for this interpolation kind")

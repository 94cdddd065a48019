// Package writeout is the external collaborator of spec.md section 1/6.3:
// it serializes an already-accumulated Outputs buffer to the sibling
// ".ray"/".shd"/".arr" files writeout() is handed. Byte-exact replication
// of BELLHOP's own Fortran record layout is explicitly out of the core's
// scope (section 1: "output writers to legacy binary/text formats" are
// named as an external collaborator, not a core responsibility); this
// package instead defines its own stable little-endian binary layout,
// documented per function below, using stdlib encoding/binary — no example
// repo in the retrieval pack touches a legacy scientific binary format, so
// there is no ecosystem library to ground a choice on here (DESIGN.md).
package writeout

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
)

// magic tags the start of each file so a reader can fail fast on a
// mismatched format instead of misinterpreting a stray file as output.
const (
	magicRay = "GBHPray1"
	magicShd = "GBHPshd1"
	magicArr = "GBHParr1"
)

// WriteRay writes out.Rays to fileRoot+".ray": a magic header, then for
// each recorded trajectory its launch index, whether it is 2D or 3D, the
// point count, and each point's position/amplitude/phase/bounce counts.
func WriteRay(fileRoot string, p *params.Params, out *params.Outputs) error {
	f, err := os.Create(fileRoot + ".ray")
	if err != nil {
		return fmt.Errorf("writeout: creating %s.ray: %w", fileRoot, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString(magicRay); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int64(len(out.Rays))); err != nil {
		return err
	}
	for _, r := range out.Rays {
		if err := writeRayRecord(w, r); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeRayRecord(w *bufio.Writer, r params.RayRecord) error {
	is3D := int32(0)
	n := len(r.Points2D)
	if len(r.Points3D) > 0 {
		is3D = 1
		n = len(r.Points3D)
	}
	fields := []any{int32(r.ISrc), int32(r.IAlpha), int32(r.IBeta), is3D, int32(n)}
	for _, v := range fields {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if is3D == 1 {
		for _, pt := range r.Points3D {
			vals := []float64{pt.X.X, pt.X.Y, pt.X.Z, pt.Amp, pt.Phase, real(pt.Tau), imag(pt.Tau)}
			if err := writeFloats(w, vals); err != nil {
				return err
			}
			if err := writeBounces(w, pt.NumTopBnc, pt.NumBotBnc); err != nil {
				return err
			}
		}
		return nil
	}
	for _, pt := range r.Points2D {
		vals := []float64{pt.X.X, pt.X.Y, pt.Amp, pt.Phase, real(pt.Tau), imag(pt.Tau)}
		if err := writeFloats(w, vals); err != nil {
			return err
		}
		if err := writeBounces(w, pt.NumTopBnc, pt.NumBotBnc); err != nil {
			return err
		}
	}
	return nil
}

func writeFloats(w *bufio.Writer, vals []float64) error {
	for _, v := range vals {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeBounces(w *bufio.Writer, top, bot int) error {
	if err := binary.Write(w, binary.LittleEndian, int32(top)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int32(bot))
}

// WriteShd writes out.Field to fileRoot+".shd": a magic header, the
// receiver grid dimensions, then the complex field in receiver-major
// (depth, range) order — the TL run mode's output (glossary: TL = -20
// log10 |U|, left for a downstream reader/plotter to compute from the
// complex field this function preserves in full).
func WriteShd(fileRoot string, p *params.Params, out *params.Outputs) error {
	f, err := os.Create(fileRoot + ".shd")
	if err != nil {
		return fmt.Errorf("writeout: creating %s.shd: %w", fileRoot, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString(magicShd); err != nil {
		return err
	}
	dims := []int32{int32(len(p.Receivers.Rz)), int32(len(p.Receivers.Rr))}
	for _, d := range dims {
		if err := binary.Write(w, binary.LittleEndian, d); err != nil {
			return err
		}
	}
	for _, v := range out.Field {
		if err := writeFloats(w, []float64{real(v), imag(v)}); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteArr writes out.Arrivals to fileRoot+".arr": a magic header, the
// receiver count, then per receiver the arrival count followed by each
// arrival's (amplitude, phase, delay, launch angle, arrival angle, top
// bounces, bottom bounces).
func WriteArr(fileRoot string, p *params.Params, out *params.Outputs) error {
	f, err := os.Create(fileRoot + ".arr")
	if err != nil {
		return fmt.Errorf("writeout: creating %s.arr: %w", fileRoot, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString(magicArr); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(out.Arrivals))); err != nil {
		return err
	}
	for _, list := range out.Arrivals {
		if err := binary.Write(w, binary.LittleEndian, int32(len(list))); err != nil {
			return err
		}
		for _, a := range list {
			vals := []float64{a.Amplitude, a.Phase, a.Delay, a.LaunchAngle, a.ArrivalAngle}
			if err := writeFloats(w, vals); err != nil {
				return err
			}
			if err := writeBounces(w, a.NumTopBnc, a.NumBotBnc); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

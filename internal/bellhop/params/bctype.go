package params

import "strings"

// BCTag is the boundary condition tag carried by a half-space (HSInfo.BC).
// The closed set mirrors BELLHOP's single-character codes.
type BCTag uint8

const (
	BCRigid BCTag = iota
	BCVacuum
	BCFile
	BCAcoustoElastic
	BCGRAB
	// BCInternal ('P', internal-layer reflection) is rejected at load time;
	// it is kept here only so the loader has something to compare against
	// and reject, per spec.md 4.E.6 / 7.
	BCInternal
)

func (bc BCTag) String() string {
	switch bc {
	case BCRigid:
		return "Rigid"
	case BCVacuum:
		return "Vacuum"
	case BCFile:
		return "File"
	case BCAcoustoElastic:
		return "Acousto-elastic"
	case BCGRAB:
		return "GRAB"
	case BCInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// bcNameMap maps the single-character BELLHOP codes, and a few longer
// aliases for the YAML loader, to BCTag.
var bcNameMap = map[string]BCTag{
	"r":               BCRigid,
	"rigid":           BCRigid,
	"v":               BCVacuum,
	"vacuum":          BCVacuum,
	"f":               BCFile,
	"file":            BCFile,
	"a":               BCAcoustoElastic,
	"acousto-elastic": BCAcoustoElastic,
	"acoustoelastic":  BCAcoustoElastic,
	"g":               BCGRAB,
	"grab":            BCGRAB,
	"p":               BCInternal,
	"internal":        BCInternal,
}

// ParseBCTag converts a boundary-condition code from a loaded environment
// file into a BCTag. Unrecognized codes come back as BCInternal so that the
// loader's unconditional rejection of internal reflections (spec.md 7,
// Input-fatal) also catches garbage input rather than silently treating it
// as rigid.
func ParseBCTag(code string) BCTag {
	if bc, ok := bcNameMap[strings.ToLower(strings.TrimSpace(code))]; ok {
		return bc
	}
	return BCInternal
}

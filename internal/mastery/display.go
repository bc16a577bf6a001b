package mastery

import "github.com/abhisek/pathwise/internal/config"

// BandPosition places a rolling accuracy relative to the target band.
type BandPosition string

const (
	BandUnknown BandPosition = "unknown"
	BandBelow   BandPosition = "below"
	BandWithin  BandPosition = "within"
	BandAbove   BandPosition = "above"
)

// ResolveBand maps an accuracy into its position against the band.
func ResolveBand(acc *float64, cfg config.Adaptive) BandPosition {
	switch {
	case acc == nil:
		return BandUnknown
	case *acc < cfg.TargetAccuracyMin:
		return BandBelow
	case *acc > cfg.TargetAccuracyMax:
		return BandAbove
	default:
		return BandWithin
	}
}

// Label returns a short human-readable label for the position.
func (b BandPosition) Label() string {
	switch b {
	case BandBelow:
		return "Below target"
	case BandWithin:
		return "On target"
	case BandAbove:
		return "Above target"
	default:
		return "No data"
	}
}

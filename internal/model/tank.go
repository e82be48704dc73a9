package model

// Reading names, in the order the tank form lists them
const (
	ReadingAmmonia   = "ammonia"
	ReadingPH        = "ph"
	ReadingNitrate   = "nitrate"
	ReadingNitrite   = "nitrite"
	ReadingGH        = "gh"
	ReadingKH        = "kh"
	ReadingPhosphate = "phosphate"
)

// ReadingNames lists every water-quality reading
var ReadingNames = []string{
	ReadingAmmonia, ReadingPH, ReadingNitrate, ReadingNitrite, ReadingGH, ReadingKH, ReadingPhosphate,
}

// NewTankStatistic is the creation payload. A nil reading was not measured
// and is sent as null, which keeps it distinct from a measured zero.
type NewTankStatistic struct {
	TestDate  string   `json:"testDate"`
	Ammonia   *float64 `json:"ammonia"`
	PH        *float64 `json:"ph"`
	Nitrate   *float64 `json:"nitrate"`
	Nitrite   *float64 `json:"nitrite"`
	GH        *float64 `json:"gh"`
	KH        *float64 `json:"kh"`
	Phosphate *float64 `json:"phosphate"`
}

// TankStatistic is a stored water-quality measurement
type TankStatistic struct {
	ID ID `json:"id"`
	NewTankStatistic
}

// EntityID implements Entity
func (s TankStatistic) EntityID() ID {
	return s.ID
}

// Readings returns the measured values keyed by reading name.
// Readings that were not measured are omitted.
func (s NewTankStatistic) Readings() map[string]float64 {
	out := make(map[string]float64, len(ReadingNames))
	for name, v := range map[string]*float64{
		ReadingAmmonia:   s.Ammonia,
		ReadingPH:        s.PH,
		ReadingNitrate:   s.Nitrate,
		ReadingNitrite:   s.Nitrite,
		ReadingGH:        s.GH,
		ReadingKH:        s.KH,
		ReadingPhosphate: s.Phosphate,
	} {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

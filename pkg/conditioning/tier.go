package conditioning

// Tier is the coarse conditioning band used for labels and threshold notices.
type Tier string

const (
	TierDefiant     Tier = "defiant"
	TierWavering    Tier = "wavering"
	TierSusceptible Tier = "susceptible"
	TierBroken      Tier = "broken"
)

// Tier lower bounds.
const (
	WaveringThreshold    = 25
	SusceptibleThreshold = 50
	BrokenThreshold      = 75
)

// TierFor maps a conditioning value to its tier.
func TierFor(value int) Tier {
	switch {
	case value >= BrokenThreshold:
		return TierBroken
	case value >= SusceptibleThreshold:
		return TierSusceptible
	case value >= WaveringThreshold:
		return TierWavering
	default:
		return TierDefiant
	}
}

// CrossedTier returns the tier reached when conditioning rises from before
// into a higher tier at after. Drops and moves within one tier return "".
func CrossedTier(before, after int) Tier {
	if after <= before {
		return ""
	}
	from, to := TierFor(before), TierFor(after)
	if from == to {
		return ""
	}
	return to
}

// Label is the capitalized display form.
func (t Tier) Label() string {
	switch t {
	case TierDefiant:
		return "Defiant"
	case TierWavering:
		return "Wavering"
	case TierSusceptible:
		return "Susceptible"
	case TierBroken:
		return "Broken"
	default:
		return string(t)
	}
}

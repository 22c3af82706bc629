package annotate

// Band is the coarse classification of a 0-100 match score. Banding drives
// color coding only; it never filters results.
type Band string

const (
	BandNone   Band = "none"
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// MatchBand classifies a match score. A nil score means no relevance model
// was applied.
func MatchBand(score *int) Band {
	switch {
	case score == nil:
		return BandNone
	case *score >= 90:
		return BandHigh
	case *score >= 60:
		return BandMedium
	default:
		return BandLow
	}
}

// MatchScoreColor maps a score to a display color. The 90/75/60 thresholds
// are finer than the bands so strong-but-not-top matches read differently.
func MatchScoreColor(score *int) string {
	switch {
	case score == nil:
		return "neutral"
	case *score >= 90:
		return "green"
	case *score >= 75:
		return "blue"
	case *score >= 60:
		return "yellow"
	default:
		return "neutral"
	}
}

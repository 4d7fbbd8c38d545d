package planner

import "github.com/edubloom/study-planner-api/internal/models"

const maxWeakBonus = 1.6

// ComputeWeights converts credits, confidence and weak-area count into a
// normalized urgency weight per subject. Lower confidence and higher
// credits increase weight monotonically; the result sums to 1 across all
// subjects.
func ComputeWeights(subjects []models.Subject) map[string]float64 {
	weights := make(map[string]float64, len(subjects))
	if len(subjects) == 0 {
		return weights
	}

	var total float64
	for _, s := range subjects {
		raw := rawWeight(s)
		weights[s.ID] = raw
		total += raw
	}
	if total <= 0 {
		// All-zero only happens with degenerate inputs; fall back to equal shares.
		for id := range weights {
			weights[id] = 1 / float64(len(subjects))
		}
		return weights
	}

	for id := range weights {
		weights[id] /= total
	}
	return weights
}

func rawWeight(s models.Subject) float64 {
	credits := s.Credits
	if credits < 1 {
		credits = 1
	}
	confidence := clampConfidence(s.ConfidenceLevel)

	bonus := 1 + 0.2*float64(len(s.WeakAreas))
	if bonus > maxWeakBonus {
		bonus = maxWeakBonus
	}
	return float64(credits) * float64(6-confidence) * bonus
}

func clampConfidence(level int) int {
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}

package meeting

import "math/rand"

// Weight decay applied after a selection: the primary minute-taker's share is
// cut hard, the first backup's mildly, so the same trio is unlikely to repeat
// while long-run selection frequency stays fair.
const (
	primaryDecay = 10
	backupDecay  = 2
)

// TakeMinutes picks the minute-taker and two fallbacks for this meeting.
//
// With fewer than 3 required participants there is no fairness to track: one
// participant is picked uniformly and returned three times, weights untouched.
//
// Otherwise 3 distinct participants are drawn without replacement using the
// weight vector as a probability distribution. Selection order matters: index
// 0 takes minutes, 1 and 2 are the fallback order. Afterwards the primary's
// weight is divided by 10 and the first backup's by 2, and the whole vector is
// renormalized to sum to 1. The caller must persist the meeting before the
// next selection or the decay is lost.
func (m *Meeting) TakeMinutes(rng *rand.Rand) [3]Participant {
	n := len(m.Participants)
	if n == 0 {
		return [3]Participant{}
	}
	if n < 3 {
		p := m.Participants[rng.Intn(n)]
		return [3]Participant{p, p, p}
	}

	weights := make([]float64, n)
	for i, p := range m.Participants {
		weights[i] = p.Weight
	}
	taken := make([]bool, n)

	var picked [3]int
	for round := 0; round < 3; round++ {
		idx := sampleIndex(rng, weights, taken)
		picked[round] = idx
		taken[idx] = true // without replacement
	}

	m.Participants[picked[0]].Weight /= primaryDecay
	m.Participants[picked[1]].Weight /= backupDecay
	m.renormalizeWeights()

	return [3]Participant{
		m.Participants[picked[0]],
		m.Participants[picked[1]],
		m.Participants[picked[2]],
	}
}

// sampleIndex draws one index among the not-yet-taken entries, proportionally
// to their weights. Weights need not sum to 1; a non-positive entry is never
// selected as long as positive mass remains. If the remaining mass is zero
// (possible when fewer than 3 entries carry weight) the draw falls back to
// uniform over the not-yet-taken indices.
func sampleIndex(rng *rand.Rand, weights []float64, taken []bool) int {
	total := 0.0
	remaining := 0
	for i, w := range weights {
		if taken[i] {
			continue
		}
		remaining++
		if w > 0 {
			total += w
		}
	}

	if total <= 0 {
		k := rng.Intn(remaining)
		for i := range weights {
			if taken[i] {
				continue
			}
			if k == 0 {
				return i
			}
			k--
		}
	}

	x := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if taken[i] || w <= 0 {
			continue
		}
		last = i
		x -= w
		if x < 0 {
			return i
		}
	}
	// Floating point residue: fall back to the last positive entry.
	return last
}

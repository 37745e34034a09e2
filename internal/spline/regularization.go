package spline

import "math"

// Regularization scores the coefficient tensor with a sparsity penalty:
// activationWeight times the summed mean absolute coefficient magnitude per
// (output, input) pair, plus entropyWeight times the entropy of those
// magnitudes normalized into a probability distribution.
//
// This scores the coefficients directly instead of the expanded per-sample
// activation tensor; it is a deliberate, memory-cheap approximation of the
// L1/entropy penalty in the KAN paper, not an exact reformulation.
//
// A zero coefficient tensor scores 0.
func (l *Layer) Regularization(activationWeight, entropyWeight float64) float64 {
	mean, total := l.pairMagnitudes()
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, m := range mean {
		if p := m / total; p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return activationWeight*total + entropyWeight*entropy
}

// RegularizationGrad accumulates the analytic gradient of Regularization
// into the coefficient gradient buffer.
//
// With S the total magnitude, p the normalized per-pair magnitudes and H
// their entropy, the derivative with respect to a pair's mean magnitude is
// activationWeight - entropyWeight*(ln p + H)/S, which distributes over the
// pair's coefficients as sign(c)/BasisSize. Pairs with zero magnitude take
// a zero subgradient.
func (l *Layer) RegularizationGrad(activationWeight, entropyWeight float64) {
	mean, total := l.pairMagnitudes()
	if total == 0 {
		return
	}
	var entropy float64
	for _, m := range mean {
		if p := m / total; p > 0 {
			entropy -= p * math.Log(p)
		}
	}

	nb := float64(l.cfg.BasisSize())
	grad := l.coef.Grad()
	data := l.coef.Data()
	for pi, m := range mean {
		if m == 0 {
			continue
		}
		p := m / total
		dPair := activationWeight - entropyWeight*(math.Log(p)+entropy)/total
		start := pi * l.cfg.BasisSize()
		for j := start; j < start+l.cfg.BasisSize(); j++ {
			switch {
			case data[j] > 0:
				grad[j] += dPair / nb
			case data[j] < 0:
				grad[j] -= dPair / nb
			}
		}
	}
}

// pairMagnitudes returns the mean absolute coefficient per (output, input)
// pair and their sum.
func (l *Layer) pairMagnitudes() ([]float64, float64) {
	nb := l.cfg.BasisSize()
	pairs := l.cfg.OutFeatures * l.cfg.InFeatures
	mean := make([]float64, pairs)
	var total float64
	data := l.coef.Data()
	for pi := 0; pi < pairs; pi++ {
		var sum float64
		for _, c := range data[pi*nb : (pi+1)*nb] {
			sum += math.Abs(c)
		}
		mean[pi] = sum / float64(nb)
		total += mean[pi]
	}
	return mean, total
}

package train

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SoftmaxCrossEntropy computes the mean cross-entropy loss of a batch of
// logits against class-index targets, together with the gradient of the
// loss with respect to the logits.
//
// The loss uses the LogSoftmax + NLL decomposition with the log-sum-exp
// trick for numerical stability; the gradient is softmax(logits) minus the
// one-hot targets, averaged over the batch.
func SoftmaxCrossEntropy(logits *mat.Dense, targets []int) (float64, *mat.Dense, error) {
	batch, classes := logits.Dims()
	if len(targets) != batch {
		return 0, nil, errors.Errorf("train: %d targets for a batch of %d", len(targets), batch)
	}

	grad := mat.NewDense(batch, classes, nil)
	var total float64
	for b := 0; b < batch; b++ {
		target := targets[b]
		if target < 0 || target >= classes {
			return 0, nil, errors.Errorf("train: target %d out of range [0, %d)", target, classes)
		}

		logProbs := logSoftmax(logits.RawRowView(b))
		total -= logProbs[target]

		gRow := grad.RawRowView(b)
		for i, lp := range logProbs {
			gRow[i] = math.Exp(lp) / float64(batch)
		}
		gRow[target] -= 1 / float64(batch)
	}
	return total / float64(batch), grad, nil
}

// Accuracy returns the fraction of rows whose argmax matches the target.
func Accuracy(logits *mat.Dense, targets []int) (float64, error) {
	batch, _ := logits.Dims()
	if len(targets) != batch {
		return 0, errors.Errorf("train: %d targets for a batch of %d", len(targets), batch)
	}
	correct := 0
	for b := 0; b < batch; b++ {
		if argmax(logits.RawRowView(b)) == targets[b] {
			correct++
		}
	}
	return float64(correct) / float64(batch), nil
}

// logSoftmax computes log(softmax(z)) via the log-sum-exp trick:
// LogSoftmax(z)[i] = z[i] - (max(z) + log(sum exp(z - max(z)))).
func logSoftmax(z []float64) []float64 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(v - maxZ)
	}
	logSumExp := maxZ + math.Log(sumExp)

	result := make([]float64, len(z))
	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}

// argmax returns the index of the maximum value.
func argmax(z []float64) int {
	maxIdx := 0
	for i, v := range z[1:] {
		if v > z[maxIdx] {
			maxIdx = i + 1
		}
	}
	return maxIdx
}

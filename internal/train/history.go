package train

import (
	"github.com/samber/lo"
)

// History keeps the per-epoch metrics of a run. It is itself a Reporter.
type History struct {
	epochs []EpochMetrics
}

// ReportEpoch appends m.
func (h *History) ReportEpoch(m EpochMetrics) {
	h.epochs = append(h.epochs, m)
}

// Epochs returns every recorded epoch in order.
func (h *History) Epochs() []EpochMetrics {
	return h.epochs
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.epochs)
}

// Losses returns the training loss of every epoch.
func (h *History) Losses() []float64 {
	return lo.Map(h.epochs, func(m EpochMetrics, _ int) float64 { return m.Loss })
}

// Accuracies returns the training accuracy of every epoch.
func (h *History) Accuracies() []float64 {
	return lo.Map(h.epochs, func(m EpochMetrics, _ int) float64 { return m.Accuracy })
}

// Last returns the most recent epoch, if any.
func (h *History) Last() (EpochMetrics, bool) {
	if len(h.epochs) == 0 {
		return EpochMetrics{}, false
	}
	return h.epochs[len(h.epochs)-1], true
}

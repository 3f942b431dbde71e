package train

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/born-ml/nnfs/internal/dataset"
	"github.com/born-ml/nnfs/internal/parallel"
)

// Metrics summarises a forward-only pass over a dataset.
type Metrics struct {
	Loss      float64 // mean loss per sample
	Accuracy  float64 // fraction of correct predictions
	Precision float64 // macro-averaged over the classes that occur
	Recall    float64 // macro-averaged over the classes that occur
	Samples   int
}

func (m Metrics) String() string {
	return fmt.Sprintf("loss=%.4f acc=%.4f precision=%.4f recall=%.4f (n=%d)",
		m.Loss, m.Accuracy, m.Precision, m.Recall, m.Samples)
}

type batchResult struct {
	loss      float64 // batch mean
	predicted []int
	labels    []int
}

// Evaluate computes loss, accuracy and macro precision/recall over ds
// without updating parameters. Augmentation is never applied.
//
// Batches are independent, so they are evaluated concurrently; results are
// stored per batch and aggregated in batch order.
func (n *Network) Evaluate(ds *dataset.Dataset, batchSize int) (Metrics, error) {
	batches, err := ds.WithoutAugmentation().Batches(batchSize, false)
	if err != nil {
		return Metrics{}, err
	}
	all := slices.Collect(batches)

	results := make([]batchResult, len(all))
	cfg := n.parallel
	cfg.MinChunkSize = 1
	err = parallel.ForErr(len(all), func(i int) error {
		b := all[i]
		out, err := n.model.Predict(b.Inputs)
		if err != nil {
			return fmt.Errorf("batch %d: %w", b.Index, err)
		}
		loss, _, err := n.loss.Compute(out, b.Targets)
		if err != nil {
			return fmt.Errorf("batch %d: %w", b.Index, err)
		}
		if !isFinite(loss) {
			return &InstabilityError{Batch: b.Index, Stage: StageLoss}
		}
		results[i] = batchResult{loss: loss, predicted: Classes(out), labels: b.Labels}
		return nil
	}, cfg)
	if err != nil {
		return Metrics{}, err
	}

	var total float64
	var predicted, labels []int
	for _, r := range results {
		total += r.loss * float64(len(r.labels))
		predicted = append(predicted, r.predicted...)
		labels = append(labels, r.labels...)
	}

	m := classificationMetrics(predicted, labels, max(ds.NumClasses(), 2))
	if m.Samples > 0 {
		m.Loss = total / float64(m.Samples)
	}
	return m, nil
}

// classificationMetrics computes accuracy and macro precision/recall.
// Classes that appear neither among the labels nor the predictions are left
// out of the macro averages.
func classificationMetrics(predicted, labels []int, numClasses int) Metrics {
	m := Metrics{Samples: len(labels)}
	if len(labels) == 0 {
		return m
	}

	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)
	for i, label := range labels {
		p := predicted[i]
		if p == label {
			tp[label]++
			continue
		}
		fp[p]++
		fn[label]++
	}

	m.Accuracy = float64(lo.Sum(tp)) / float64(len(labels))

	present := lo.Filter(lo.Range(numClasses), func(c, _ int) bool {
		return tp[c]+fp[c]+fn[c] > 0
	})
	m.Precision = lo.Mean(lo.Map(present, func(c, _ int) float64 {
		return ratio(tp[c], tp[c]+fp[c])
	}))
	m.Recall = lo.Mean(lo.Map(present, func(c, _ int) float64 {
		return ratio(tp[c], tp[c]+fn[c])
	}))
	return m
}

// correct returns the number of predictions equal to their label.
func correct(predicted, labels []int) int {
	return lo.CountBy(lo.Range(len(labels)), func(i int) bool {
		return predicted[i] == labels[i]
	})
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

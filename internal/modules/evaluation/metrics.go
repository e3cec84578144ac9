// Package evaluation scores classifier predictions: accuracy, log loss,
// confusion matrices and per-class precision and recall.
package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrLength is returned when prediction and truth slices differ in length.
var ErrLength = errors.New("inputs have different lengths")

// logLossEpsilon clips probabilities away from 0 and 1.
const logLossEpsilon = 1e-15

// Accuracy returns the fraction of predictions equal to the truth.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d truths, %d predictions", ErrLength, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// LogLoss returns the mean negative log-likelihood of the true class. Each
// row is clipped to [eps, 1-eps] and renormalized first.
func LogLoss(yTrue []int, yProb [][]float64) (float64, error) {
	if len(yTrue) != len(yProb) {
		return 0, fmt.Errorf("%w: %d truths, %d probability rows", ErrLength, len(yTrue), len(yProb))
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	total := 0.0
	for i, row := range yProb {
		y := yTrue[i]
		if y < 0 || y >= len(row) {
			return 0, fmt.Errorf("sample %d: class %d outside probability row of %d", i, y, len(row))
		}
		sum := 0.0
		for _, p := range row {
			sum += clip(p)
		}
		total -= math.Log(clip(row[y]) / sum)
	}
	return total / float64(len(yTrue)), nil
}

func clip(p float64) float64 {
	return math.Min(math.Max(p, logLossEpsilon), 1-logLossEpsilon)
}

// Labels returns the sorted union of the values in yTrue and yPred.
func Labels(yTrue, yPred []int) []int {
	seen := make(map[int]bool)
	for _, y := range yTrue {
		seen[y] = true
	}
	for _, y := range yPred {
		seen[y] = true
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// ConfusionMatrix counts predictions per (true, predicted) pair; row i is
// true class labels[i], column j is predicted class labels[j]. A nil labels
// uses Labels(yTrue, yPred). Pairs whose labels are not listed are ignored.
func ConfusionMatrix(yTrue, yPred []int, labels []int) (*mat.Dense, []int, error) {
	if len(yTrue) != len(yPred) {
		return nil, nil, fmt.Errorf("%w: %d truths, %d predictions", ErrLength, len(yTrue), len(yPred))
	}
	if labels == nil {
		labels = Labels(yTrue, yPred)
	}
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("confusion matrix needs at least one label")
	}
	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, okR := index[yTrue[i]]
		c, okC := index[yPred[i]]
		if okR && okC {
			cm.Set(r, c, cm.At(r, c)+1)
		}
	}
	return cm, labels, nil
}

// ClassMetrics are the per-class scores of a classification report.
type ClassMetrics struct {
	Label     int     `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// AverageMetrics are averaged scores across classes.
type AverageMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport holds per-class and averaged precision, recall and F1.
type ClassificationReport struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    AverageMetrics `json:"macro_avg"`
	WeightedAvg AverageMetrics `json:"weighted_avg"`
}

// NewClassificationReport derives the report from a confusion matrix.
// Undefined ratios (no predictions or no support) are reported as zero.
func NewClassificationReport(cm *mat.Dense, labels []int) ClassificationReport {
	n, _ := cm.Dims()
	report := ClassificationReport{Classes: make([]ClassMetrics, n)}

	total, correct := 0.0, 0.0
	for i := 0; i < n; i++ {
		correct += cm.At(i, i)
		total += mat.Sum(cm.RowView(i))
	}
	if total > 0 {
		report.Accuracy = correct / total
	}

	for i := 0; i < n; i++ {
		tp := cm.At(i, i)
		support := mat.Sum(cm.RowView(i))
		predicted := mat.Sum(cm.ColView(i))
		m := ClassMetrics{Label: labels[i], Support: int(support)}
		if predicted > 0 {
			m.Precision = tp / predicted
		}
		if support > 0 {
			m.Recall = tp / support
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Classes[i] = m

		report.MacroAvg.Precision += m.Precision / float64(n)
		report.MacroAvg.Recall += m.Recall / float64(n)
		report.MacroAvg.F1 += m.F1 / float64(n)
		if total > 0 {
			w := support / total
			report.WeightedAvg.Precision += w * m.Precision
			report.WeightedAvg.Recall += w * m.Recall
			report.WeightedAvg.F1 += w * m.F1
		}
	}
	report.MacroAvg.Support = int(total)
	report.WeightedAvg.Support = int(total)
	return report
}

// String renders the report as an aligned text table.
func (r ClassificationReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	sb.WriteString("\n")
	for _, c := range r.Classes {
		fmt.Fprintf(&sb, "%12d %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&sb, "%12s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&sb, "%12s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return sb.String()
}

// Report bundles every score computed for one evaluation.
type Report struct {
	Accuracy       float64              `json:"accuracy"`
	LogLoss        *float64             `json:"log_loss,omitempty"`
	Labels         []int                `json:"labels"`
	Confusion      [][]float64          `json:"confusion_matrix"`
	Classification ClassificationReport `json:"classification"`

	confusion *mat.Dense
}

// ConfusionDense returns the confusion matrix as a gonum matrix.
func (r *Report) ConfusionDense() *mat.Dense {
	return r.confusion
}

// Evaluate scores predictions. yProb may be nil, in which case LogLoss is
// left unset.
func Evaluate(yTrue, yPred []int, yProb [][]float64) (*Report, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	cm, labels, err := ConfusionMatrix(yTrue, yPred, nil)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Accuracy:       acc,
		Labels:         labels,
		Classification: NewClassificationReport(cm, labels),
		confusion:      cm,
	}
	rows, _ := cm.Dims()
	report.Confusion = make([][]float64, rows)
	for i := range report.Confusion {
		report.Confusion[i] = mat.Row(nil, i, cm)
	}
	if yProb != nil {
		loss, err := LogLoss(yTrue, yProb)
		if err != nil {
			return nil, err
		}
		report.LogLoss = &loss
	}
	return report, nil
}

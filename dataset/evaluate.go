package dataset

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/models"
)

// Prediction pairs a vector's true label with the model's answer
type Prediction struct {
	Truth     string
	Predicted string
}

// PredictVectors runs model over vectors with at most workers concurrent
// predictions. Results keep input order; the first failure aborts.
func PredictVectors(ctx context.Context, model models.Model, vectors []*features.Vector, workers int) ([]Prediction, error) {
	logger := logging.FromContext(ctx).WithFields(logging.Fields{
		"component": "dataset",
		"function":  "PredictVectors",
	})
	logger.Info("making predictions", logging.Fields{"vectors": len(vectors)})

	start := time.Now()
	values := make([][]float64, len(vectors))
	for i, v := range vectors {
		values[i] = v.Values
	}
	labels, err := models.PredictAll(ctx, model, values, workers)
	if err != nil {
		return nil, err
	}

	out := make([]Prediction, len(vectors))
	for i, v := range vectors {
		out[i] = Prediction{Truth: v.Label, Predicted: labels[i]}
		logger.Debug("prediction", logging.Fields{"path": v.Path, "truth": v.Label, "predicted": labels[i]})
	}
	logger.Info("predictions done", logging.Fields{"elapsed_ms": time.Since(start).Milliseconds()})
	return out, nil
}

// Report is the outcome of an evaluation. Confusion[i][j] counts vectors of
// class Labels[i] predicted as Labels[j].
type Report struct {
	Total     int
	Correct   int
	Labels    []string
	Confusion [][]int
}

// Evaluate tallies predictions into an accuracy and a confusion matrix over
// every label seen on either side, sorted
func Evaluate(predictions []Prediction) *Report {
	seen := make(map[string]struct{})
	for _, p := range predictions {
		seen[p.Truth] = struct{}{}
		seen[p.Predicted] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	r := &Report{Total: len(predictions), Labels: labels, Confusion: make([][]int, len(labels))}
	for i := range r.Confusion {
		r.Confusion[i] = make([]int, len(labels))
	}
	for _, p := range predictions {
		r.Confusion[index[p.Truth]][index[p.Predicted]]++
		if p.Truth == p.Predicted {
			r.Correct++
		}
	}
	return r
}

// Accuracy is the fraction of correct predictions, 0 for an empty report
func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6e7681"))
	diagonalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	cellStyle     = lipgloss.NewStyle()
)

// Render formats the accuracy and the confusion matrix. Columns are headed by
// the first two letters of each label; rows carry the full label.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Accuracy: %.2f%% (%d/%d)", 100*r.Accuracy(), r.Correct, r.Total)))
	b.WriteString("\n")
	if len(r.Labels) == 0 {
		return b.String()
	}

	labelWidth := 0
	for _, l := range r.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	cellWidth := 4
	for _, row := range r.Confusion {
		for _, n := range row {
			cellWidth = max(cellWidth, len(strconv.Itoa(n))+1)
		}
	}

	pad := func(s string, w int) string {
		return strings.Repeat(" ", max(0, w-lipgloss.Width(s))) + s
	}

	b.WriteString(strings.Repeat(" ", labelWidth+8))
	for _, l := range r.Labels {
		b.WriteString(headerStyle.Render(pad(abbrev(l), cellWidth)))
	}
	b.WriteString("\n")

	for i, l := range r.Labels {
		b.WriteString(headerStyle.Render("(" + abbrev(l) + ")"))
		b.WriteString(strings.Repeat(" ", max(0, 4-lipgloss.Width(abbrev(l)))))
		b.WriteString(l + strings.Repeat(" ", labelWidth-lipgloss.Width(l)) + " [")
		for j, n := range r.Confusion[i] {
			style := cellStyle
			if i == j {
				style = diagonalStyle
			}
			b.WriteString(style.Render(pad(strconv.Itoa(n), cellWidth)))
		}
		b.WriteString(" ]\n")
	}
	return b.String()
}

// abbrev returns the first two letters of label with the first upper-cased
func abbrev(label string) string {
	r := []rune(label)
	if len(r) == 0 {
		return ""
	}
	r = r[:min(2, len(r))]
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

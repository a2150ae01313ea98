// Package riskmodel scores checkpoint observations with a logistic
// regression model loaded from JSON.
package riskmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// SuspiciousThreshold is the probability at or above which an observation is flagged.
const SuspiciousThreshold = 0.5

// file is the on-disk model format.
type file struct {
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Model implements ports.RiskModel. The zero value is a model that is not ready.
type Model struct {
	path         string
	columns      []string
	coefficients []float64
	intercept    float64
	ready        bool
}

var _ ports.RiskModel = (*Model)(nil)

// Load reads the model at path. A missing file yields a model that is not
// ready rather than an error; an unreadable or inconsistent file is an error.
func Load(path string) (*Model, error) {
	m := &Model{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("risk model not found, predictions disabled", "path", path)
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(f.Columns) == 0 {
		f.Columns = domain.FeatureColumns
	}
	if len(f.Coefficients) != len(f.Columns) {
		return nil, fmt.Errorf("model %s: %d coefficients for %d columns", path, len(f.Coefficients), len(f.Columns))
	}

	m.columns = f.Columns
	m.coefficients = f.Coefficients
	m.intercept = f.Intercept
	m.ready = true
	slog.Info("risk model loaded", "path", path, "columns", len(m.columns))
	return m, nil
}

func (m *Model) Ready() bool  { return m.ready }
func (m *Model) Path() string { return m.path }

// Predict scores features in column order; absent features count as zero.
// An unready model returns the zero prediction.
func (m *Model) Predict(features map[string]float64) domain.Prediction {
	if !m.ready {
		return domain.Prediction{}
	}

	z := m.intercept
	for i, col := range m.columns {
		z += m.coefficients[i] * features[col]
	}
	p := 1 / (1 + math.Exp(-z))

	pred := domain.Prediction{Probability: p, RiskScore: int(math.RoundToEven(p * 100))}
	if p >= SuspiciousThreshold {
		pred.IsSuspicious = 1
	}
	return pred
}

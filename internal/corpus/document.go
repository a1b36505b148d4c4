// Package corpus defines the searchable equipment document collection.
// Documents are immutable after load; the ranking pipeline only reads
// them by reference.
package corpus

import (
	"strings"

	"github.com/equiprank/equiprank/internal/taxonomy"
)

// MetricUnit tags how a metric's values are expressed.
type MetricUnit string

const (
	// UnitFraction marks values in [0,1].
	UnitFraction MetricUnit = "fraction"
	// UnitPercent marks values in [0,100].
	UnitPercent MetricUnit = "percent"
)

// MetricStats carries the aggregated statistics of one numeric metric.
type MetricStats struct {
	Display     string     `json:"display,omitempty"`
	Mean        float64    `json:"mean,omitempty"`
	Median      float64    `json:"median,omitempty"`
	Min         float64    `json:"min,omitempty"`
	Max         float64    `json:"max,omitempty"`
	SampleCount int        `json:"n,omitempty"`
	Unit        MetricUnit `json:"unit,omitempty"`
}

// IsZero reports whether no statistics were provided.
func (m MetricStats) IsZero() bool {
	return m.SampleCount == 0 && m.Mean == 0 && m.Median == 0 && m.Min == 0 && m.Max == 0 && m.Display == ""
}

// Metrics groups the per-document numeric metrics.
type Metrics struct {
	ValorUnitario MetricStats `json:"valorUnitario,omitempty"`
	VidaUtilMeses MetricStats `json:"vidaUtilMeses,omitempty"`
	Manutencao    MetricStats `json:"manutencao,omitempty"`
}

// Document is one corpus record. GroupID clusters variant SKUs of the
// same equipment; Embedding is optional and may be computed lazily.
type Document struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId,omitempty"`
	Title       string `json:"title,omitempty"`
	EquipmentID string `json:"equipmentId,omitempty"`

	Text         string `json:"text,omitempty"`
	RawText      string `json:"rawText,omitempty"`
	SemanticText string `json:"semanticText,omitempty"`

	Embedding []float32 `json:"embedding,omitempty"`

	Brand    string `json:"brand,omitempty"`
	Supplier string `json:"supplier,omitempty"`

	Metrics Metrics `json:"metrics,omitempty"`

	// Legacy flat fields, used when Metrics carries no stats.
	Price              float64 `json:"price,omitempty"`
	LifespanMonths     float64 `json:"lifespanMonths,omitempty"`
	MaintenancePercent float64 `json:"maintenancePercent,omitempty"`

	// DocCategory is the persisted category; detected at load when absent.
	DocCategory taxonomy.Category `json:"docCategory,omitempty"`
	// Domain is a coarse domain classification from ingestion.
	Domain string `json:"domain,omitempty"`
}

// DisplayTitle returns the human-facing title, falling back to the
// equipment identifier and finally the id.
func (d *Document) DisplayTitle() string {
	switch {
	case d.Title != "":
		return d.Title
	case d.EquipmentID != "":
		return d.EquipmentID
	default:
		return d.ID
	}
}

// IndexText returns the text indexed by the lexical channel: the richest
// textual field available.
func (d *Document) IndexText() string {
	parts := make([]string, 0, 3)
	if d.RawText != "" {
		parts = append(parts, d.RawText)
	} else if d.Text != "" {
		parts = append(parts, d.Text)
	}
	if t := d.DisplayTitle(); t != "" {
		parts = append(parts, t)
	}
	if d.Brand != "" {
		parts = append(parts, d.Brand)
	}
	return strings.Join(parts, " ")
}

// SemanticBody returns the text embedded for the semantic channel.
func (d *Document) SemanticBody() string {
	if d.SemanticText != "" {
		return d.SemanticText
	}
	return d.IndexText()
}

// normalizeLegacy fills metric stats from flat legacy fields when the
// structured stats are absent. Sample count 1 marks a legacy-sourced value.
func (d *Document) normalizeLegacy() {
	if d.Metrics.ValorUnitario.IsZero() && d.Price != 0 {
		d.Metrics.ValorUnitario = legacyStats(d.Price, UnitFraction)
	}
	if d.Metrics.VidaUtilMeses.IsZero() && d.LifespanMonths != 0 {
		d.Metrics.VidaUtilMeses = legacyStats(d.LifespanMonths, UnitFraction)
	}
	if d.Metrics.Manutencao.IsZero() && d.MaintenancePercent != 0 {
		d.Metrics.Manutencao = legacyStats(d.MaintenancePercent, UnitPercent)
	}
}

func legacyStats(v float64, unit MetricUnit) MetricStats {
	return MetricStats{
		Mean:        v,
		Median:      v,
		Min:         v,
		Max:         v,
		SampleCount: 1,
		Unit:        unit,
	}
}

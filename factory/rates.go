/*
Package factory converts rate and roster documents into award values.

PURPOSE:
  Award rates change every July and penalty rules differ between awards.
  Keeping them in JSON or YAML documents lets payroll staff update a rate
  table without a code change; the factory turns a document into a
  validated award.RateTable.

DOCUMENT SCHEMA (JSON shown, YAML uses the same keys):
  {
    "name": "Hospitality Award 2025",
    "rates": [
      {"classification": "FB_GRADE_2", "base_hourly_rate": "26.55",
       "effective_from": "2025-07-01"}
    ],
    "penalties": [
      {"id": "saturday", "day_type": "SATURDAY", "multiplier": 1.25, "precedence": 10},
      {"id": "weekday-evening", "day_type": "WEEKDAY",
       "time_window": {"start": "19:00", "end": "24:00"}, "multiplier": 1.1}
    ],
    "allowances": [
      {"id": "split", "type": "split_shift", "amount": 4.94,
       "basis": "FLAT", "trigger": "SPLIT_SHIFT"}
    ]
  }

  Decimal fields accept either JSON numbers or strings. Enum values are
  case-insensitive. A missing allowance basis means FLAT.

USAGE:
  f := factory.NewRateFactory()
  table, err := f.ParseJSON(data)

  // Or keep the document around (the API stores it verbatim)
  doc, err := f.DecodeYAML(data)
  table, err := f.FromDocument(doc)

SEE ALSO:
  - award/ratetable.go: RateTable validation
  - factory/roster.go: Employee, shift and holiday documents
  - factory/preset.go: Built-in hospitality rate table
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/award-engine/award"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Number is a decimal that decodes from a JSON/YAML number or string.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	if string(data) == "null" {
		*n = ""
		return nil
	}
	*n = Number(data)
	return nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	*n = Number(node.Value)
	return nil
}

func (n Number) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return decimal.Zero, fmt.Errorf("missing value")
	}
	return decimal.NewFromString(s)
}

// RateConfigDocument is the serialised form of award.RateConfig.
type RateConfigDocument struct {
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Rates      []AwardRateDoc   `json:"rates" yaml:"rates"`
	Penalties  []PenaltyRuleDoc `json:"penalties,omitempty" yaml:"penalties,omitempty"`
	Allowances []AllowanceDoc   `json:"allowances,omitempty" yaml:"allowances,omitempty"`
}

type AwardRateDoc struct {
	Classification string `json:"classification" yaml:"classification"`
	BaseHourlyRate Number `json:"base_hourly_rate" yaml:"base_hourly_rate"`
	EffectiveFrom  string `json:"effective_from" yaml:"effective_from"`
	EffectiveTo    string `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

type WindowDoc struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type PenaltyRuleDoc struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name,omitempty" yaml:"name,omitempty"`
	DayType         string     `json:"day_type" yaml:"day_type"`
	Window          *WindowDoc `json:"time_window,omitempty" yaml:"time_window,omitempty"`
	Multiplier      Number     `json:"multiplier" yaml:"multiplier"`
	Precedence      int        `json:"precedence" yaml:"precedence"`
	Classifications []string   `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	EffectiveFrom   string     `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	EffectiveTo     string     `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

type AllowanceDoc struct {
	ID              string     `json:"id" yaml:"id"`
	Type            string     `json:"type" yaml:"type"`
	Amount          Number     `json:"amount" yaml:"amount"`
	Basis           string     `json:"basis,omitempty" yaml:"basis,omitempty"`
	Trigger         string     `json:"trigger" yaml:"trigger"`
	Window          *WindowDoc `json:"time_window,omitempty" yaml:"time_window,omitempty"`
	DayType         string     `json:"day_type,omitempty" yaml:"day_type,omitempty"`
	Classifications []string   `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	EffectiveFrom   string     `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	EffectiveTo     string     `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

// =============================================================================
// RATE FACTORY
// =============================================================================

// RateFactory converts rate documents to award rate tables.
type RateFactory struct{}

func NewRateFactory() *RateFactory {
	return &RateFactory{}
}

// ParseJSON parses a JSON rate document into a validated RateTable.
func (f *RateFactory) ParseJSON(data []byte) (*award.RateTable, error) {
	doc, err := f.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return f.FromDocument(doc)
}

// ParseYAML parses a YAML rate document into a validated RateTable.
func (f *RateFactory) ParseYAML(data []byte) (*award.RateTable, error) {
	doc, err := f.DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return f.FromDocument(doc)
}

// ParseFile reads a rate document, choosing YAML or JSON by extension.
func (f *RateFactory) ParseFile(path string) (*award.RateTable, RateConfigDocument, error) {
	var doc RateConfigDocument
	if err := DecodeFile(path, &doc); err != nil {
		return nil, doc, err
	}
	table, err := f.FromDocument(doc)
	return table, doc, err
}

func (f *RateFactory) DecodeJSON(data []byte) (RateConfigDocument, error) {
	var doc RateConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse rate JSON: %w", err)
	}
	return doc, nil
}

func (f *RateFactory) DecodeYAML(data []byte) (RateConfigDocument, error) {
	var doc RateConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse rate YAML: %w", err)
	}
	return doc, nil
}

// FromDocument converts and validates a document.
func (f *RateFactory) FromDocument(doc RateConfigDocument) (*award.RateTable, error) {
	cfg, err := f.ToConfig(doc)
	if err != nil {
		return nil, err
	}
	return award.NewRateTable(cfg)
}

// ToConfig converts field formats only. Cross-field rules are checked by
// award.NewRateTable.
func (f *RateFactory) ToConfig(doc RateConfigDocument) (award.RateConfig, error) {
	cfg := award.RateConfig{Name: doc.Name}

	for i, rd := range doc.Rates {
		field := indexed("rates", i)
		base, err := rd.BaseHourlyRate.Decimal()
		if err != nil {
			return cfg, fieldErr(field+".base_hourly_rate", err)
		}
		from, err := parseDate(rd.EffectiveFrom)
		if err != nil {
			return cfg, fieldErr(field+".effective_from", err)
		}
		to, err := parseOptionalDate(rd.EffectiveTo)
		if err != nil {
			return cfg, fieldErr(field+".effective_to", err)
		}
		cfg.Rates = append(cfg.Rates, award.AwardRate{
			Classification: award.Classification(strings.TrimSpace(rd.Classification)),
			BaseHourlyRate: base,
			EffectiveFrom:  from,
			EffectiveTo:    to,
		})
	}

	for i, pd := range doc.Penalties {
		field := indexed("penalties", i)
		mult, err := pd.Multiplier.Decimal()
		if err != nil {
			return cfg, fieldErr(field+".multiplier", err)
		}
		window, err := parseWindow(pd.Window)
		if err != nil {
			return cfg, fieldErr(field+".time_window", err)
		}
		from, to, err := parseDateRange(pd.EffectiveFrom, pd.EffectiveTo)
		if err != nil {
			return cfg, fieldErr(field, err)
		}
		cfg.Penalties = append(cfg.Penalties, award.PenaltyRule{
			ID:              pd.ID,
			Name:            pd.Name,
			DayType:         award.DayType(enum(pd.DayType)),
			Window:          window,
			Multiplier:      mult,
			Precedence:      pd.Precedence,
			Classifications: classifications(pd.Classifications),
			EffectiveFrom:   from,
			EffectiveTo:     to,
		})
	}

	for i, ad := range doc.Allowances {
		field := indexed("allowances", i)
		amount, err := ad.Amount.Decimal()
		if err != nil {
			return cfg, fieldErr(field+".amount", err)
		}
		window, err := parseWindow(ad.Window)
		if err != nil {
			return cfg, fieldErr(field+".time_window", err)
		}
		from, to, err := parseDateRange(ad.EffectiveFrom, ad.EffectiveTo)
		if err != nil {
			return cfg, fieldErr(field, err)
		}
		basis := award.AllowanceBasis(enum(ad.Basis))
		if basis == "" {
			basis = award.BasisFlat
		}
		cfg.Allowances = append(cfg.Allowances, award.AllowanceRate{
			ID:              ad.ID,
			Type:            ad.Type,
			Amount:          amount,
			Basis:           basis,
			Trigger:         enum(ad.Trigger),
			Window:          window,
			DayType:         award.DayType(enum(ad.DayType)),
			Classifications: classifications(ad.Classifications),
			EffectiveFrom:   from,
			EffectiveTo:     to,
		})
	}

	return cfg, nil
}

// ToDocument converts a RateConfig back to its document form.
func (f *RateFactory) ToDocument(cfg award.RateConfig) RateConfigDocument {
	doc := RateConfigDocument{Name: cfg.Name}

	for _, r := range cfg.Rates {
		doc.Rates = append(doc.Rates, AwardRateDoc{
			Classification: string(r.Classification),
			BaseHourlyRate: Number(r.BaseHourlyRate.String()),
			EffectiveFrom:  r.EffectiveFrom.String(),
			EffectiveTo:    optionalDate(r.EffectiveTo),
		})
	}
	for _, p := range cfg.Penalties {
		doc.Penalties = append(doc.Penalties, PenaltyRuleDoc{
			ID:              p.ID,
			Name:            p.Name,
			DayType:         string(p.DayType),
			Window:          windowDoc(p.Window),
			Multiplier:      Number(p.Multiplier.String()),
			Precedence:      p.Precedence,
			Classifications: classificationStrings(p.Classifications),
			EffectiveFrom:   optionalDate(p.EffectiveFrom),
			EffectiveTo:     optionalDate(p.EffectiveTo),
		})
	}
	for _, a := range cfg.Allowances {
		doc.Allowances = append(doc.Allowances, AllowanceDoc{
			ID:              a.ID,
			Type:            a.Type,
			Amount:          Number(a.Amount.String()),
			Basis:           string(a.Basis),
			Trigger:         a.Trigger,
			Window:          windowDoc(a.Window),
			DayType:         string(a.DayType),
			Classifications: classificationStrings(a.Classifications),
			EffectiveFrom:   optionalDate(a.EffectiveFrom),
			EffectiveTo:     optionalDate(a.EffectiveTo),
		})
	}
	return doc
}

// DecodeFile reads path into v. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func enum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func indexed(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

func fieldErr(field string, err error) error {
	return &award.ConfigError{Field: field, Reason: err.Error()}
}

func parseDate(s string) (award.Date, error) {
	if strings.TrimSpace(s) == "" {
		return award.Date{}, fmt.Errorf("date is required")
	}
	return award.ParseDate(strings.TrimSpace(s))
}

func parseOptionalDate(s string) (*award.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := award.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDateRange(from, to string) (*award.Date, *award.Date, error) {
	f, err := parseOptionalDate(from)
	if err != nil {
		return nil, nil, fmt.Errorf("effective_from: %w", err)
	}
	t, err := parseOptionalDate(to)
	if err != nil {
		return nil, nil, fmt.Errorf("effective_to: %w", err)
	}
	return f, t, nil
}

func parseWindow(w *WindowDoc) (*award.TimeWindow, error) {
	if w == nil {
		return nil, nil
	}
	start, err := award.ParseClockTime(w.Start)
	if err != nil {
		return nil, err
	}
	end, err := award.ParseClockTime(w.End)
	if err != nil {
		return nil, err
	}
	return &award.TimeWindow{Start: start, End: end}, nil
}

func optionalDate(d *award.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func windowDoc(w *award.TimeWindow) *WindowDoc {
	if w == nil {
		return nil
	}
	return &WindowDoc{Start: w.Start.String(), End: w.End.String()}
}

func classifications(in []string) []award.Classification {
	if len(in) == 0 {
		return nil
	}
	out := make([]award.Classification, len(in))
	for i, c := range in {
		out[i] = award.Classification(strings.TrimSpace(c))
	}
	return out
}

func classificationStrings(in []award.Classification) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}

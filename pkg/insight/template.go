package insight

import (
	"errors"
	"fmt"
	"strings"
)

// ToolTemplate is a plan for a monetizable tool built around a keyword
type ToolTemplate struct {
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	TargetAudience       []string             `json:"targetAudience"`
	ContentStrategy      ContentStrategy      `json:"contentStrategy"`
	MonetizationStrategy MonetizationStrategy `json:"monetizationStrategy"`
	TrafficSources       TrafficSources       `json:"trafficSources"`
	ConversionStrategy   ConversionStrategy   `json:"conversionStrategy"`
	Implementation       Implementation       `json:"implementation"`
	Calculator           *Calculator          `json:"calculator,omitempty"`
}

type ContentStrategy struct {
	Topics    []string `json:"topics"`
	Formats   []string `json:"formats"`
	Platforms []string `json:"platforms"`
}

type MonetizationStrategy struct {
	PrimaryMethod    string   `json:"primaryMethod"`
	SecondaryMethods []string `json:"secondaryMethods"`
	EstimatedRevenue string   `json:"estimatedRevenue"`
}

type TrafficSources struct {
	Organic []string `json:"organic"`
	Paid    []string `json:"paid"`
	Social  []string `json:"social"`
}

type ConversionStrategy struct {
	FunnelStages     []string `json:"funnelStages"`
	CallsToAction    []string `json:"callsToAction"`
	ConversionPoints []string `json:"conversionPoints"`
}

type Implementation struct {
	RequiredResources []string `json:"requiredResources"`
	Timeline          string   `json:"timeline"`
	Metrics           []string `json:"metrics"`
}

type Calculator struct {
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Fields         []Field        `json:"fields"`
	Formulas       []Formula      `json:"formulas"`
	DisplayOptions DisplayOptions `json:"displayOptions"`
}

// Field types accepted in calculator forms
const (
	FieldNumber = "number"
	FieldText   = "text"
	FieldSelect = "select"
)

type Field struct {
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Type         string           `json:"type"`
	DefaultValue interface{}      `json:"defaultValue,omitempty"`
	Options      []string         `json:"options,omitempty"`
	Validation   *FieldValidation `json:"validation,omitempty"`
}

type FieldValidation struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Required bool     `json:"required,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

type Formula struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Formula     string   `json:"formula"`
	Variables   []string `json:"variables"`
	Unit        string   `json:"unit,omitempty"`
}

type DisplayOptions struct {
	ShowChart      bool   `json:"showChart"`
	ChartType      string `json:"chartType,omitempty"`
	CompareResults bool   `json:"compareResults"`
	ShowBreakdown  bool   `json:"showBreakdown"`
}

// Validate reports every problem in the template at once so the model can
// fix them in a single retry
func (t *ToolTemplate) Validate() error {
	var errs []error

	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(t.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}

	if t.Calculator != nil {
		for i, field := range t.Calculator.Fields {
			if strings.TrimSpace(field.Name) == "" {
				errs = append(errs, fmt.Errorf("calculator.fields[%d].name is required", i))
			}
			switch field.Type {
			case FieldNumber, FieldText, FieldSelect:
			default:
				errs = append(errs, fmt.Errorf("calculator.fields[%d].type %q must be number, text or select", i, field.Type))
			}
			if field.Validation != nil && field.Validation.Min != nil && field.Validation.Max != nil &&
				*field.Validation.Min > *field.Validation.Max {
				errs = append(errs, fmt.Errorf("calculator.fields[%d].validation min exceeds max", i))
			}
		}
	}

	return errors.Join(errs...)
}

// Package validation evaluates declarative field rules against untyped JSON payloads.
// A Schema is an ordered list of rules; evaluation stops at the first violation.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rice-supply-chain-api/internal/identity"
	"github.com/spf13/cast"
)

// MaxSafeInteger mirrors the largest integer a JSON client can represent exactly.
const MaxSafeInteger = 9007199254740991

// Rule checks one concern of a payload.
type Rule interface {
	// Check returns a ValidationError when the payload violates the rule.
	Check(payload map[string]any) error
	// Fields lists the payload keys the rule inspects.
	Fields() []string
}

// Schema is an ordered rule chain.
type Schema []Rule

// Validate runs the rules in order and returns the first violation.
func (s Schema) Validate(payload map[string]any) error {
	for _, rule := range s {
		if err := rule.Check(payload); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns every key referenced by the schema, in first-seen order.
func (s Schema) Fields() []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, rule := range s {
		for _, f := range rule.Fields() {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields
}

// IsAbsent treats a missing key, null and the empty string as absent. false and 0 are present.
func IsAbsent(payload map[string]any, field string) bool {
	v, ok := payload[field]
	if !ok || v == nil {
		return true
	}
	if s, isString := v.(string); isString && s == "" {
		return true
	}
	return false
}

type requiredRule struct {
	fields []string
}

// Required fails with every missing field listed.
func Required(fields ...string) Rule {
	return requiredRule{fields: fields}
}

func (r requiredRule) Fields() []string { return r.fields }

func (r requiredRule) Check(payload map[string]any) error {
	var missing []string
	for _, f := range r.fields {
		if IsAbsent(payload, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return ValidationError{
		Fields:  missing,
		Message: "Missing required fields: " + strings.Join(missing, ", "),
	}
}

type identifierRule struct {
	fields []string
}

// IdentifierShape fails when a present field is not a well-formed record identifier.
func IdentifierShape(fields ...string) Rule {
	return identifierRule{fields: fields}
}

func (r identifierRule) Fields() []string { return r.fields }

func (r identifierRule) Check(payload map[string]any) error {
	var invalid []string
	for _, f := range r.fields {
		if IsAbsent(payload, f) {
			continue
		}
		s, ok := payload[f].(string)
		if !ok || !identity.IsValid(s) {
			invalid = append(invalid, f)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return ValidationError{
		Fields:  invalid,
		Message: "Invalid public key format in fields: " + strings.Join(invalid, ", "),
	}
}

type enumRule struct {
	field   string
	allowed []string
}

// Enum restricts a present field to the allowed string values.
func Enum(field string, allowed ...string) Rule {
	return enumRule{field: field, allowed: allowed}
}

func (r enumRule) Fields() []string { return []string{r.field} }

func (r enumRule) Check(payload map[string]any) error {
	if IsAbsent(payload, r.field) {
		return nil
	}
	if s, ok := payload[r.field].(string); ok {
		for _, a := range r.allowed {
			if s == a {
				return nil
			}
		}
	}
	return ValidationError{
		Fields:  []string{r.field},
		Message: fmt.Sprintf("Invalid %s. Must be one of: %s", r.field, strings.Join(r.allowed, ", ")),
	}
}

type arrayBoundRule struct {
	field  string
	maxLen int
}

// ArrayBound requires a present field to be an array of at most maxLen items.
func ArrayBound(field string, maxLen int) Rule {
	return arrayBoundRule{field: field, maxLen: maxLen}
}

func (r arrayBoundRule) Fields() []string { return []string{r.field} }

func (r arrayBoundRule) Check(payload map[string]any) error {
	if IsAbsent(payload, r.field) {
		return nil
	}
	if items, ok := payload[r.field].([]any); ok && len(items) <= r.maxLen {
		return nil
	}
	return ValidationError{
		Fields:  []string{r.field},
		Message: fmt.Sprintf("%s must be an array with maximum %d items", r.field, r.maxLen),
	}
}

type numericRangeRule struct {
	field    string
	min, max float64
}

// NumericRange requires a present field to be numeric within [min, max].
// Numeric strings are accepted.
func NumericRange(field string, min, max float64) Rule {
	return numericRangeRule{field: field, min: min, max: max}
}

// NonNegative is NumericRange from 0 to MaxSafeInteger.
func NonNegative(field string) Rule {
	return NumericRange(field, 0, MaxSafeInteger)
}

func (r numericRangeRule) Fields() []string { return []string{r.field} }

func (r numericRangeRule) Check(payload map[string]any) error {
	if IsAbsent(payload, r.field) {
		return nil
	}
	n, ok := ToNumber(payload[r.field])
	if ok && n >= r.min && n <= r.max {
		return nil
	}
	return ValidationError{
		Fields: []string{r.field},
		Message: fmt.Sprintf("%s must be a number between %s and %s",
			r.field, formatNumber(r.min), formatNumber(r.max)),
	}
}

type dateRule struct {
	field string
}

// ParseableDate requires a present field to parse as a calendar date.
func ParseableDate(field string) Rule {
	return dateRule{field: field}
}

func (r dateRule) Fields() []string { return []string{r.field} }

func (r dateRule) Check(payload map[string]any) error {
	if IsAbsent(payload, r.field) {
		return nil
	}
	if _, ok := ParseDate(payload[r.field]); ok {
		return nil
	}
	return ValidationError{
		Fields:  []string{r.field},
		Message: fmt.Sprintf("%s must be a valid date", r.field),
	}
}

// ToNumber coerces JSON numbers, numeric strings and booleans to float64.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		v = strings.TrimSpace(t)
		if v == "" {
			return 0, false
		}
	case json.Number:
		v = t.String()
	case []any, map[string]any:
		return 0, false
	}
	n, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

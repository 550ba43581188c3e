// Package rules validates incoming RADAR payloads against configurable CEL
// expressions before they are upserted. A failing rule is a validation fault:
// the record is rejected for the current cycle and never retried, since
// re-sending the same malformed payload cannot succeed.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
)

// Rule is one named boolean CEL expression over the incoming record. The
// expression sees a single variable `record` (the decoded payload map) and
// must evaluate to true for the record to be accepted.
type Rule struct {
	Name    string
	Expr    string
	Message string
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// Engine evaluates a fixed rule set against payload maps. Construction
// compiles every expression once; Validate is cheap and safe for concurrent
// use.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the given rules. A rule that does not compile, or does
// not produce a boolean, is a configuration error reported at startup.
func NewEngine(rules []Rule) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}

	e := &Engine{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", r.Name, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build rule %q: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiledRule{rule: r, program: program})
	}
	return e, nil
}

// Validate runs every rule against the record and returns a validation error
// for the first rule that fails or cannot be evaluated against the payload.
func (e *Engine) Validate(record map[string]any) error {
	for _, cr := range e.rules {
		out, _, err := cr.program.Eval(map[string]any{"record": record})
		if err != nil {
			// Evaluation errors (missing key, wrong type) mean the payload
			// does not have the shape the rule expects.
			return apperror.NewValidation(cr.rule.Message).
				WithDetail("rule", cr.rule.Name).
				WithDetail("error", err.Error())
		}
		ok, isBool := out.Value().(bool)
		if !isBool || !ok {
			return apperror.NewValidation(cr.rule.Message).
				WithDetail("rule", cr.rule.Name)
		}
	}
	return nil
}

// VoyageRules is the default rule set for incoming RADAR voyage records.
func VoyageRules() []Rule {
	return []Rule{
		{
			Name:    "voyage_number_present",
			Expr:    `has(record.voyage_number) && record.voyage_number != ""`,
			Message: "voyage payload missing voyage_number",
		},
		{
			Name:    "vessel_name_present",
			Expr:    `has(record.vessel_name) && record.vessel_name != ""`,
			Message: "voyage payload missing vessel_name",
		},
		{
			Name:    "laytime_non_negative",
			Expr:    `!has(record.laytime_allowed) || double(record.laytime_allowed) >= 0.0`,
			Message: "laytime_allowed must not be negative",
		},
		{
			Name:    "demurrage_rate_non_negative",
			Expr:    `!has(record.demurrage_rate) || double(record.demurrage_rate) >= 0.0`,
			Message: "demurrage_rate must not be negative",
		},
		{
			Name:    "charter_type_known",
			Expr:    `!has(record.charter_type) || record.charter_type in ["SPOT", "TRADED"]`,
			Message: "charter_type must be SPOT or TRADED",
		},
	}
}

// ClaimRules is the default rule set for incoming RADAR claim records.
func ClaimRules() []Rule {
	return []Rule{
		{
			Name:    "voyage_reference_present",
			Expr:    `has(record.radar_voyage_id) && record.radar_voyage_id != ""`,
			Message: "claim payload missing radar_voyage_id",
		},
		{
			Name:    "claim_type_known",
			Expr:    `has(record.claim_type) && record.claim_type in ["DEMURRAGE", "POST_DEAL", "DESPATCH", "DEAD_FREIGHT", "OTHER"]`,
			Message: "unknown claim_type",
		},
		{
			Name:    "claimed_amount_non_negative",
			Expr:    `!has(record.claimed_amount) || double(record.claimed_amount) >= 0.0`,
			Message: "claimed_amount must not be negative",
		},
	}
}

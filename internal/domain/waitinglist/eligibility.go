package waitinglist

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"kgv/internal/core/apperror"
)

// Eligibility rules are small CEL expressions configured per list by the
// office, evaluated against applicant attributes on join. The attribute
// names below are the complete vocabulary a rule may reference.
const (
	AttrApplicantAge  = "applicant_age"
	AttrCity          = "city"
	AttrHouseholdSize = "household_size"
	AttrHasPlot       = "has_existing_plot"
)

var ruleEnvOptions = []cel.EnvOption{
	cel.Variable(AttrApplicantAge, cel.IntType),
	cel.Variable(AttrCity, cel.StringType),
	cel.Variable(AttrHouseholdSize, cel.IntType),
	cel.Variable(AttrHasPlot, cel.BoolType),
}

// Rule is a compiled eligibility expression.
type Rule struct {
	expr string
	prg  cel.Program
}

// CompileRule compiles a CEL expression into a reusable rule.
// The expression must evaluate to a boolean.
func CompileRule(expr string) (*Rule, error) {
	env, err := cel.NewEnv(ruleEnvOptions...)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid eligibility rule").
			WithDetail("expression", expr).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("eligibility rule must evaluate to a boolean").
			WithDetail("expression", expr).
			WithDetail("output_type", ast.OutputType().String())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}

	return &Rule{expr: expr, prg: prg}, nil
}

// Expression returns the source expression.
func (r *Rule) Expression() string {
	return r.expr
}

// Eval evaluates the rule against applicant attributes. Missing attributes
// default to zero values so a rule never fails on sparse legacy data.
func (r *Rule) Eval(attrs map[string]any) (bool, error) {
	activation := map[string]any{
		AttrApplicantAge:  int64(0),
		AttrCity:          "",
		AttrHouseholdSize: int64(1),
		AttrHasPlot:       false,
	}
	for k, v := range attrs {
		activation[k] = v
	}

	out, _, err := r.prg.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("evaluate rule %q: %w", r.expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q returned %T, want bool", r.expr, out.Value())
	}
	return ok, nil
}

// RuleSet holds the configured eligibility rule per list. Lists without a
// rule accept every application.
type RuleSet struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]*Rule)}
}

// Set compiles and installs the rule for a list. An empty expression
// removes the rule.
func (s *RuleSet) Set(listName, expr string) error {
	if expr == "" {
		s.mu.Lock()
		delete(s.rules, listName)
		s.mu.Unlock()
		return nil
	}

	rule, err := CompileRule(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rules[listName] = rule
	s.mu.Unlock()
	return nil
}

// Check evaluates the list's rule against the attributes. Returns a
// NOT_ELIGIBLE error when the rule rejects the application.
func (s *RuleSet) Check(listName string, attrs map[string]any) error {
	s.mu.RLock()
	rule := s.rules[listName]
	s.mu.RUnlock()

	if rule == nil {
		return nil
	}

	ok, err := rule.Eval(attrs)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotEligible(listName, rule.Expression())
	}
	return nil
}

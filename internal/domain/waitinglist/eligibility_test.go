package waitinglist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/tx"
)

func TestCompileRule(t *testing.T) {
	rule, err := CompileRule(`applicant_age >= 18 && city == "Frankfurt"`)
	require.NoError(t, err)

	ok, err := rule.Eval(map[string]any{AttrApplicantAge: int64(42), AttrCity: "Frankfurt"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rule.Eval(map[string]any{AttrApplicantAge: int64(17), AttrCity: "Frankfurt"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileRuleRejectsNonBoolean(t *testing.T) {
	_, err := CompileRule(`applicant_age + 1`)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCompileRuleRejectsUnknownVariable(t *testing.T) {
	_, err := CompileRule(`shoe_size > 40`)
	require.Error(t, err)
}

func TestRuleEvalDefaultsMissingAttributes(t *testing.T) {
	rule, err := CompileRule(`!has_existing_plot`)
	require.NoError(t, err)

	ok, err := rule.Eval(nil)
	require.NoError(t, err)
	assert.True(t, ok, "missing attribute should default to zero value")
}

func TestRuleSetCheck(t *testing.T) {
	rules := NewRuleSet()
	require.NoError(t, rules.Set(ListDistrict32, `applicant_age >= 18`))

	assert.NoError(t, rules.Check(ListDistrict32, map[string]any{AttrApplicantAge: int64(30)}))

	err := rules.Check(ListDistrict32, map[string]any{AttrApplicantAge: int64(12)})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotEligible, appErr.Code)

	// Lists without a rule accept everything.
	assert.NoError(t, rules.Check(ListDistrict33, nil))

	// Clearing the rule reopens the list.
	require.NoError(t, rules.Set(ListDistrict32, ""))
	assert.NoError(t, rules.Check(ListDistrict32, map[string]any{AttrApplicantAge: int64(12)}))
}

func TestJoinEnforcesEligibility(t *testing.T) {
	repo := &memRepo{}
	rules := NewRuleSet()
	require.NoError(t, rules.Set(ListDistrict32, `applicant_age >= 18`))
	ranker := NewRanker(repo, tx.NoopManager{}, rules)
	ctx := context.Background()

	_, err := ranker.Join(ctx, JoinParams{
		ApplicationID: id.New(),
		ListName:      ListDistrict32,
		ReferenceDate: date("2024-01-01"),
		Attributes:    map[string]any{AttrApplicantAge: int64(16)},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotEligible, appErr.Code)

	_, err = ranker.Join(ctx, JoinParams{
		ApplicationID: id.New(),
		ListName:      ListDistrict32,
		ReferenceDate: date("2024-01-01"),
		Attributes:    map[string]any{AttrApplicantAge: int64(34)},
	})
	assert.NoError(t, err)
}

package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignErrorWrapping(t *testing.T) {
	base := errors.New("boom")
	err := &CampaignError{CampaignID: "camp-1", Operation: "start", Err: base}

	assert.Equal(t, "campaign camp-1 start: boom", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestStepExecutionError(t *testing.T) {
	base := ErrProviderTransient

	withStep := &StepExecutionError{CampaignLeadID: "lead-1", StepID: "step-1", Err: base}
	assert.Equal(t, "lead lead-1 step step-1: transient provider error", withStep.Error())
	assert.True(t, errors.Is(withStep, ErrProviderTransient))

	withoutStep := &StepExecutionError{CampaignLeadID: "lead-1", Err: base}
	assert.Equal(t, "lead lead-1: transient provider error", withoutStep.Error())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		errs     ValidationErrors
		expected string
	}{
		{
			name:     "single",
			errs:     ValidationErrors{{Field: "message", Message: "is required"}},
			expected: "message: is required",
		},
		{
			name: "multiple returns first",
			errs: ValidationErrors{
				{Field: "message", Message: "is required"},
				{Field: "subject", Message: "is required"},
			},
			expected: "message: is required",
		},
		{
			name:     "none",
			errs:     ValidationErrors{},
			expected: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errs.Error())
		})
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrCampaignNotFound, ErrStepNotFound, ErrLeadNotFound, ErrActivityNotFound,
		ErrAccountNotFound, ErrInvitationNotFound, ErrQuotaDaily, ErrQuotaWeekly,
		ErrNoValidAccounts, ErrLinkedInURLMissing, ErrRequiresIntervention,
		ErrWaitingAcceptance, ErrAlreadyRanToday, ErrCampaignLocked,
		ErrProviderTransient, ErrProviderRateLimit, ErrCredentialsExpired,
	}
	seen := map[string]bool{}
	for _, err := range all {
		assert.NotEmpty(t, err.Error())
		assert.False(t, seen[err.Error()], "duplicate error message: %s", err.Error())
		seen[err.Error()] = true
	}
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("c-1", "  Ada Lovelace ", " ada@example.com ", testTime)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)

	tests := []struct {
		name  string
		cname string
		email string
		field string
	}{
		{name: "blank name", cname: " ", email: "a@b.io", field: "name"},
		{name: "missing email", cname: "A", email: "", field: "email"},
		{name: "malformed email", cname: "A", email: "not-an-email", field: "email"},
		{name: "display name form", cname: "A", email: "Ada <ada@example.com>", field: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustomer("c", tt.cname, tt.email, testTime)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     string
	}{
		{NewNotFoundError(EntityOrder, "o-1"), ErrNotFound, KindNotFound},
		{NewInvalidStateTransitionError(EntityOrder, "CREATED", "PAID", "no"), ErrInvalidStateTransition, KindInvalidStateTransition},
		{NewBusinessRuleError(RuleDuplicateEmail, "taken"), ErrBusinessRule, KindBusinessRule},
		{NewValidationError("amount", "bad"), ErrValidation, KindValidation},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.sentinel)
		kinded, ok := tt.err.(interface{ Kind() string })
		require.True(t, ok)
		assert.Equal(t, tt.kind, kinded.Kind())
	}

	assert.Equal(t, "Order not found: o-1", NewNotFoundError(EntityOrder, "o-1").Error())
	assert.True(t, IsBusinessRule(NewBusinessRuleError(RuleDuplicateEmail, "x"), RuleDuplicateEmail))
	assert.False(t, IsBusinessRule(NewBusinessRuleError(RuleDuplicateEmail, "x"), RulePaymentAmountExceedsPending))
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBusinessRule           = errors.New("business rule violation")
	ErrValidation             = errors.New("validation failed")
)

// Error kinds reported through Kind().
const (
	KindNotFound               = "not_found"
	KindInvalidStateTransition = "invalid_state_transition"
	KindBusinessRule           = "business_rule_violation"
	KindValidation             = "validation_error"
)

// Business rule names.
const (
	RuleDuplicateEmail              = "DUPLICATE_EMAIL"
	RulePaymentOnlyOnConfirmedOrder = "PAYMENT_ONLY_ON_CONFIRMED_ORDER"
	RulePaymentAmountExceedsPending = "PAYMENT_AMOUNT_EXCEEDS_PENDING"
)

// Entity names used in error details.
const (
	EntityOrder    = "Order"
	EntityPayment  = "Payment"
	EntityCustomer = "Customer"
)

type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
func (e *NotFoundError) Kind() string  { return KindNotFound }

// InvalidStateTransitionError is returned by the state machines when the
// requested transition is not allowed from the current status.
type InvalidStateTransitionError struct {
	Entity  string
	Current string
	Target  string
	Reason  string
}

func NewInvalidStateTransitionError(entity, current, target, reason string) *InvalidStateTransitionError {
	return &InvalidStateTransitionError{Entity: entity, Current: current, Target: target, Reason: reason}
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s: %s", e.Entity, e.Current, e.Target, e.Reason)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }
func (e *InvalidStateTransitionError) Kind() string  { return KindInvalidStateTransition }

type BusinessRuleError struct {
	Rule    string
	Message string
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error { return ErrBusinessRule }
func (e *BusinessRuleError) Kind() string  { return KindBusinessRule }

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
func (e *ValidationError) Kind() string  { return KindValidation }

// IsBusinessRule reports whether err is a violation of the named rule.
func IsBusinessRule(err error, rule string) bool {
	var ruleErr *BusinessRuleError
	return errors.As(err, &ruleErr) && ruleErr.Rule == rule
}

// IsDomainError reports whether err belongs to one of the domain kinds. Such
// errors are final: retrying the same request yields the same result.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrBusinessRule) ||
		errors.Is(err, ErrValidation)
}

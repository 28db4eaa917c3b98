package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/repository/memory"
)

func newTestService() CustomerService {
	store := memory.NewStore()
	return NewCustomerService(store, store.Customers(), zap.NewNop())
}

func TestCreateCustomer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	res, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "  Ada Lovelace ", Email: " ada@example.com "})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Ada Lovelace", res.Name)
	assert.Equal(t, "ada@example.com", res.Email)

	byID, err := svc.GetCustomer(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, byID)

	byEmail, err := svc.GetCustomerByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.ID, byEmail.ID)
}

func TestCreateCustomerRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, &CreateCustomerRequest{Name: "Other Ada", Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, domain.IsBusinessRule(err, domain.RuleDuplicateEmail))
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name string
		req  CreateCustomerRequest
	}{
		{"missing name", CreateCustomerRequest{Email: "a@example.com"}},
		{"missing email", CreateCustomerRequest{Name: "A"}},
		{"malformed email", CreateCustomerRequest{Name: "A", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCustomer(context.Background(), &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetCustomer(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

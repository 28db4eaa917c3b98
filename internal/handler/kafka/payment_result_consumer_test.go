package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersystem/internal/app/payments"
	"ordersystem/internal/domain"
)

type stubPaymentService struct {
	payments.PaymentService
	err    error
	result *payments.GatewayResult
	raw    []byte
}

func (s *stubPaymentService) ProcessGatewayResult(_ context.Context, result *payments.GatewayResult, raw []byte) error {
	s.result = result
	s.raw = raw
	return s.err
}

func TestPaymentResultConsumer_HandleMessage(t *testing.T) {
	body := []byte(`{"event_id":"evt-1","payment_id":"p-1","outcome":"APPROVED"}`)

	tests := []struct {
		name       string
		value      []byte
		serviceErr error
		wantErr    bool
		wantCall   bool
	}{
		{name: "applied", value: body, wantCall: true},
		{name: "malformed payload is acknowledged", value: []byte("{"), wantCall: false},
		{name: "domain rejection is acknowledged", value: body, serviceErr: domain.NewNotFoundError(domain.EntityPayment, "p-1"), wantCall: true},
		{name: "infrastructure error is redelivered", value: body, serviceErr: errors.New("db down"), wantErr: true, wantCall: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPaymentService{err: tt.serviceErr}
			c := NewPaymentResultConsumer(svc, zap.NewNop())

			err := c.HandleMessage(context.Background(), kafka.Message{Value: tt.value})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if !tt.wantCall {
				assert.Nil(t, svc.result)
				return
			}
			require.NotNil(t, svc.result)
			assert.Equal(t, "evt-1", svc.result.EventID)
			assert.Equal(t, "p-1", svc.result.PaymentID)
			assert.Equal(t, tt.value, svc.raw)
		})
	}
}

func TestPaymentResultConsumer_FallsBackToMessageKey(t *testing.T) {
	svc := &stubPaymentService{}
	c := NewPaymentResultConsumer(svc, zap.NewNop())

	err := c.HandleMessage(context.Background(), kafka.Message{
		Key:   []byte("evt-key"),
		Value: []byte(`{"payment_id":"p-1","outcome":"FAILED"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-key", svc.result.EventID)
}

package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_ExactArithmetic(t *testing.T) {
	total := ZeroMoney
	for i := 0; i < 10; i++ {
		total = total.Add(MustParseMoney("0.10"))
	}
	assert.True(t, total.Equal(MoneyFromInt(1)))
	assert.Equal(t, "1.00", total.String())
	assert.Equal(t, "0.30", SumMoney(MustParseMoney("0.1"), MustParseMoney("0.2")).String())
	assert.Equal(t, "29.97", MustParseMoney("9.99").Mul(3).String())
	assert.Equal(t, -1, MustParseMoney("1.99").Cmp(MustParseMoney("2")))
}

func TestMoney_IsChargeable(t *testing.T) {
	assert.True(t, MustParseMoney("0.01").IsChargeable())
	assert.True(t, MustParseMoney("12.5").IsChargeable())
	assert.False(t, MustParseMoney("0.00").IsChargeable())
	assert.False(t, MustParseMoney("-1").IsChargeable())
	assert.False(t, MustParseMoney("0.015").IsChargeable())
}

func TestMoney_JSON(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 19.9}`), &payload))
	assert.Equal(t, "19.90", payload.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "5.25"}`), &payload))
	assert.Equal(t, "5.25", payload.Amount.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 5.25}`, string(out))

	_, err = ParseMoney("ten")
	assert.Error(t, err)
}

func TestMoney_SQLRoundTrip(t *testing.T) {
	value, err := MustParseMoney("3.5").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.50", value)

	var m Money
	require.NoError(t, m.Scan([]byte("42.10")))
	assert.Equal(t, "42.10", m.String())
}

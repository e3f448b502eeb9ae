package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRates(t *testing.T) {
	rates := NewStaticRates("usd", map[string]float64{"EUR": 1.1, "rub": 0.011})
	ctx := context.Background()

	r, err := rates.Rate(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1.1", r.String())

	r, err = rates.Rate(ctx, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1", r.String())

	r, err = rates.Rate(ctx, "EUR", "RUB")
	require.NoError(t, err)
	assert.Equal(t, "100", r.String())

	_, err = rates.Rate(ctx, "JPY", "USD")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type priced struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalCodecRoundTrip(t *testing.T) {
	reg := Registry()
	in := priced{Amount: decimal.RequireFromString("1234.56")}

	raw, err := bson.MarshalWithRegistry(reg, in)
	require.NoError(t, err)

	lookup := bson.Raw(raw).Lookup("amount")
	assert.Equal(t, bson.TypeDecimal128, lookup.Type)

	var out priced
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, in.Amount.Equal(out.Amount), "got %s", out.Amount)
}

func TestDecimalDecodesLegacyDouble(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"amount": 19.5})
	require.NoError(t, err)

	var out priced
	require.NoError(t, bson.UnmarshalWithRegistry(Registry(), raw, &out))
	assert.Equal(t, "19.5", out.Amount.String())
}

func TestBuildDialectorRejectsUnknown(t *testing.T) {
	_, err := buildDialector("oracle", "")
	assert.Error(t, err)
}

package database

import (
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// ToInfDec convertit un montant en valeur CQL decimal.
func ToInfDec(d decimal.Decimal) *inf.Dec {
	return new(inf.Dec).SetUnscaledBig(d.Coefficient()).SetScale(inf.Scale(-d.Exponent()))
}

// FromInfDec convertit une valeur CQL decimal en montant. nil vaut zéro.
func FromInfDec(d *inf.Dec) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.UnscaledBig(), -int32(d.Scale()))
}

package ledger

import "github.com/shopspring/decimal"

// Scale é a precisão monetária (NUMERIC(18,2))
const Scale = 2

// Bounds define o intervalo fechado aceito para um valor
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func NewBounds(min, max float64) Bounds {
	return Bounds{Min: decimal.NewFromFloat(min), Max: decimal.NewFromFloat(max)}
}

// CheckAmount valida positividade, casas decimais e limites; label entra na mensagem
func CheckAmount(amount decimal.Decimal, b Bounds, label string) error {
	if !amount.IsPositive() {
		return Validation("%s amount must be positive", label)
	}
	if !amount.Equal(amount.Round(Scale)) {
		return Validation("%s amount must have at most %d decimal places", label, Scale)
	}
	if amount.LessThan(b.Min) {
		return Validation("minimum %s amount is %s", label, b.Min.StringFixed(Scale))
	}
	if amount.GreaterThan(b.Max) {
		return Validation("maximum %s amount is %s", label, b.Max.StringFixed(Scale))
	}
	return nil
}

package trade

import (
	"fmt"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// remainderThreshold is the fraction of a regular installment above which a
// trailing remainder gets its own installment instead of being folded into
// an enlarged final one.
var remainderThreshold = decimal.NewFromFloat(0.6)

// MaxInstallmentCount bounds the schedule a single sale may generate
const MaxInstallmentCount = 600

// MoneyScale is the number of decimal places amounts are stored with
const MoneyScale = 2

// ScheduleLine is one generated installment
type ScheduleLine struct {
	Ordinal int
	Amount  decimal.Decimal
}

// GenerateSchedule partitions a sale price into installments.
//
// When the price divides evenly by installmentAmount, installmentCount lines of
// installmentAmount are returned. Otherwise the regular lines are followed by a
// final line that absorbs the remainder: one regular line fewer is emitted when
// the remainder is at most 60% of installmentAmount, so the last line is never
// a tiny trailing amount. The amounts always sum exactly to totalPrice.
func GenerateSchedule(totalPrice, installmentAmount decimal.Decimal, installmentCount int) ([]ScheduleLine, error) {
	if err := validateScheduleInputs(totalPrice, installmentAmount, installmentCount); err != nil {
		return nil, err
	}

	whole, remainder := splitPrice(totalPrice, installmentAmount)
	if remainder.IsZero() {
		lines := make([]ScheduleLine, 0, installmentCount)
		for ordinal := 1; ordinal <= installmentCount; ordinal++ {
			lines = append(lines, ScheduleLine{Ordinal: ordinal, Amount: installmentAmount})
		}
		return lines, nil
	}

	regular := regularCount(whole, remainder, installmentAmount)
	lines := make([]ScheduleLine, 0, regular+1)
	for ordinal := 1; ordinal <= regular; ordinal++ {
		lines = append(lines, ScheduleLine{Ordinal: ordinal, Amount: installmentAmount})
	}
	last := totalPrice.Sub(installmentAmount.Mul(decimal.NewFromInt(int64(regular))))
	lines = append(lines, ScheduleLine{Ordinal: regular + 1, Amount: last})
	return lines, nil
}

// ValidateTerms checks that the declared installment count agrees with the
// schedule the price and installment amount produce.
func ValidateTerms(totalPrice, installmentAmount decimal.Decimal, installmentCount int) error {
	if err := validateScheduleInputs(totalPrice, installmentAmount, installmentCount); err != nil {
		return err
	}
	expected := ExpectedInstallmentCount(totalPrice, installmentAmount)
	if expected != installmentCount {
		return shared.NewValidationError(fmt.Sprintf(
			"Installment count %d does not match price %s and installment amount %s (expected %d installments)",
			installmentCount, totalPrice.String(), installmentAmount.String(), expected))
	}
	return nil
}

// ExpectedInstallmentCount returns the number of installments the price and
// installment amount produce. Inputs must be positive.
func ExpectedInstallmentCount(totalPrice, installmentAmount decimal.Decimal) int {
	whole, remainder := splitPrice(totalPrice, installmentAmount)
	if remainder.IsZero() {
		return whole
	}
	return regularCount(whole, remainder, installmentAmount) + 1
}

func validateScheduleInputs(totalPrice, installmentAmount decimal.Decimal, installmentCount int) error {
	if !totalPrice.IsPositive() {
		return shared.NewValidationError("Total price must be greater than zero")
	}
	if !installmentAmount.IsPositive() {
		return shared.NewValidationError("Installment amount must be greater than zero")
	}
	if err := checkMoneyScale("Total price", totalPrice); err != nil {
		return err
	}
	if err := checkMoneyScale("Installment amount", installmentAmount); err != nil {
		return err
	}
	if installmentCount < 1 {
		return shared.NewValidationError("Installment count must be at least 1")
	}
	if installmentCount > MaxInstallmentCount {
		return shared.NewValidationError(fmt.Sprintf("Installment count cannot exceed %d", MaxInstallmentCount))
	}
	if installmentAmount.Mul(decimal.NewFromInt(MaxInstallmentCount)).LessThan(totalPrice) {
		return shared.NewValidationError(fmt.Sprintf(
			"Price %s and installment amount %s would produce more than %d installments",
			totalPrice.String(), installmentAmount.String(), MaxInstallmentCount))
	}
	return nil
}

// checkMoneyScale rejects amounts finer than a cent. Trailing zeros are
// fine, so 10.500 passes and 0.004 does not.
func checkMoneyScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return shared.NewValidationError(fmt.Sprintf(
			"%s %s has more than %d decimal places", field, amount.String(), MoneyScale))
	}
	return nil
}

// splitPrice returns floor(total / amount) and the exact remainder
func splitPrice(totalPrice, installmentAmount decimal.Decimal) (int, decimal.Decimal) {
	remainder := totalPrice.Mod(installmentAmount)
	whole := totalPrice.Sub(remainder).Div(installmentAmount).IntPart()
	return int(whole), remainder
}

// regularCount compares remainder/amount against the threshold without
// dividing, so the comparison is exact.
func regularCount(whole int, remainder, installmentAmount decimal.Decimal) int {
	n := whole
	if remainder.LessThanOrEqual(installmentAmount.Mul(remainderThreshold)) {
		n--
	}
	if n < 0 {
		n = 0
	}
	return n
}

package usecase

import (
	"math"
	"unicode"
)

// ValidateAmount checks that a monetary amount is a positive finite number.
func ValidateAmount(amount float64) bool {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}
	return amount > 0
}

// ValidatePIN checks that a rider PIN is 4 to 8 digits.
func ValidatePIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

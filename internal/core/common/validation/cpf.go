package validation

import (
	"strings"

	errors "github.com/regulariza/process-management/internal"
)

// IsValidCPF reports whether s is a valid Brazilian CPF. Accepts the bare
// 11-digit form or the punctuated 000.000.000-00 form. Strings made of a
// single repeated digit pass the check-digit math but are not valid CPFs.
func IsValidCPF(s string) bool {
	cleaned := strings.NewReplacer(".", "", "-", "", " ", "").Replace(s)
	if len(cleaned) != 11 {
		return false
	}

	digits := make([]int, 11)
	allEqual := true
	for i, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
		if i > 0 && digits[i] != digits[0] {
			allEqual = false
		}
	}
	if allEqual {
		return false
	}

	if checkDigit(digits, 9) != digits[9] {
		return false
	}
	return checkDigit(digits, 10) == digits[10]
}

// checkDigit computes the CPF verification digit over the first n digits,
// with weights n+1 down to 2.
func checkDigit(digits []int, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += digits[i] * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

func ValidateCPF(cpf string) *errors.AppError {
	if cpf == "" {
		return nil
	}
	if !IsValidCPF(cpf) {
		return errors.NewValidationFieldError("cpf", "cpf is not valid", errors.ErrCodeInvalidCPF)
	}
	return nil
}

// internal/underwriting/emi.go
package underwriting

import "math"

// EMI computes the equated monthly installment for a principal at an annual
// percentage rate over a tenure in months. A zero rate degenerates to a
// straight division of the principal.
func EMI(principal, annualRate float64, tenureMonths int) float64 {
	n := float64(tenureMonths)
	if n == 0 {
		return 0
	}
	r := annualRate / 100.0 / 12.0
	if r == 0 {
		return principal / n
	}
	factor := math.Pow(1+r, n)
	return principal * r * factor / (factor - 1)
}

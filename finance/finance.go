// Package finance holds the amortization math for the deal desk: forward
// finance and lease payments, and the reverse buying-power solve. Every
// function is pure; results are rounded to whole dollars because the
// kiosk renders currency with zero fractional digits.
package finance

import "math"

// Bounds for calculator input. Requests outside these are rejected rather
// than clamped; worksheet down-payment clamping is the store's job.
const (
	MaxAmount     = 1_000_000_000.0
	MaxAPR        = 100.0
	MaxTermMonths = 600
	MinTermMonths = 1
)

// LeaseAcquisitionFee is the fixed bank fee added to lease due-at-signing.
const LeaseAcquisitionFee = 895.0

// PaymentQuote is the result of a forward finance calculation.
type PaymentQuote struct {
	Monthly       float64 `json:"monthly"`
	TotalCost     float64 `json:"total_cost"`
	TotalInterest float64 `json:"total_interest"`
}

// LeaseQuote is the result of a lease calculation.
type LeaseQuote struct {
	Monthly       float64 `json:"monthly"`
	DueAtSigning  float64 `json:"due_at_signing"`
	ResidualValue float64 `json:"residual_value"`
}

// BuyingPower is the result of the reverse solve: the loan a monthly
// budget supports, and the total price once a down payment is layered on.
type BuyingPower struct {
	LoanAmount        float64 `json:"loan_amount"`
	TotalBuyingPower  float64 `json:"total_buying_power"`
	DownPaymentAmount float64 `json:"down_payment_amount"`
}

func round(v float64) float64 {
	return math.Round(v)
}

func monthlyRate(aprPercent float64) float64 {
	return aprPercent / 100 / 12
}

// FinancePayment computes the standard annuity payment for a principal at
// aprPercent over termMonths. Zero or negative principal yields all zeros;
// zero APR degrades to straight division. Only the returned figures are
// rounded, never the intermediate terms.
func FinancePayment(principal, aprPercent float64, termMonths int) PaymentQuote {
	if principal <= 0 {
		return PaymentQuote{}
	}

	n := float64(termMonths)
	r := monthlyRate(aprPercent)

	if r == 0 {
		return PaymentQuote{
			Monthly:       round(principal / n),
			TotalCost:     round(principal),
			TotalInterest: 0,
		}
	}

	pow := math.Pow(1+r, n)
	monthly := principal * r * pow / (pow - 1)
	totalCost := monthly * n

	return PaymentQuote{
		Monthly:       round(monthly),
		TotalCost:     round(totalCost),
		TotalInterest: round(totalCost - principal),
	}
}

// LeasePayment computes a lease payment from the capitalized cost, the
// residual value assumed at lease end, and the money factor. A zero or
// negative MSRP yields all zeros.
func LeasePayment(msrp, sellingPrice, downPayment float64, termMonths int, residualPercent, moneyFactor float64) LeaseQuote {
	if msrp <= 0 {
		return LeaseQuote{}
	}

	capitalizedCost := sellingPrice - downPayment
	residualValue := msrp * residualPercent
	depreciation := (capitalizedCost - residualValue) / float64(termMonths)
	rentCharge := (capitalizedCost + residualValue) * moneyFactor
	monthly := depreciation + rentCharge

	return LeaseQuote{
		Monthly:       round(monthly),
		DueAtSigning:  round(downPayment + monthly + LeaseAcquisitionFee),
		ResidualValue: round(residualValue),
	}
}

// ComputeBuyingPower inverts the annuity formula: given a monthly budget,
// term and APR, it solves the supportable loan amount, then scales up by
// the down-payment percentage to a total vehicle price. Feeding LoanAmount
// back through FinancePayment reproduces the budget within a dollar.
func ComputeBuyingPower(monthlyBudget float64, termMonths int, aprPercent, downPaymentPercent float64) BuyingPower {
	if monthlyBudget <= 0 {
		return BuyingPower{}
	}

	n := float64(termMonths)
	r := monthlyRate(aprPercent)

	var loanAmount float64
	if r == 0 {
		loanAmount = monthlyBudget * n
	} else {
		loanAmount = monthlyBudget * (1 - math.Pow(1+r, -n)) / r
	}

	totalBuyingPower := loanAmount
	var downPaymentAmount float64
	if downPaymentPercent > 0 {
		totalBuyingPower = loanAmount / (1 - downPaymentPercent)
		downPaymentAmount = totalBuyingPower * downPaymentPercent
	}

	return BuyingPower{
		LoanAmount:        round(loanAmount),
		TotalBuyingPower:  round(totalBuyingPower),
		DownPaymentAmount: round(downPaymentAmount),
	}
}

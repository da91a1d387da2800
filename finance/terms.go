package finance

import (
	"github.com/mpalmer79/dealdesk/model"
)

// TermRate pairs a term length with the APR offered for it. The canonical
// menu comes from config and is frozen into each worksheet at creation.
type TermRate struct {
	Months int
	APR    float64
}

// GenerateTermMenu builds the worksheet's term menu by running the
// principal through FinancePayment at each canonical rate. Exactly the
// entry matching defaultTerm is marked selected. The menu is generated
// once per worksheet; later base-field changes do not re-price it.
func GenerateTermMenu(principal float64, terms []TermRate, defaultTerm int) []model.TermOption {
	options := make([]model.TermOption, 0, len(terms))
	for _, tr := range terms {
		quote := FinancePayment(principal, tr.APR, tr.Months)
		options = append(options, model.TermOption{
			TermMonths:      tr.Months,
			APR:             tr.APR,
			MonthlyPayment:  quote.Monthly,
			TotalOfPayments: quote.TotalCost,
			TotalInterest:   quote.TotalInterest,
			IsSelected:      tr.Months == defaultTerm,
		})
	}
	return options
}

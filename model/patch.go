package model

// CustomerPatch carries the fields a kiosk session may change. Pointers
// distinguish "not sent" from zero values.
type CustomerPatch struct {
	DownPayment  *float64 `json:"down_payment,omitempty"`
	SelectedTerm *int     `json:"selected_term,omitempty"`
}

// ManagerOverride carries the dashboard-only overlay fields.
type ManagerOverride struct {
	ManagerAdjustment *float64 `json:"manager_adjustment,omitempty"`
	ManagerNotes      *string  `json:"manager_notes,omitempty"`
	CounterOfferSent  *bool    `json:"counter_offer_sent,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p CustomerPatch) IsEmpty() bool {
	return p.DownPayment == nil && p.SelectedTerm == nil
}

// IsEmpty reports whether the override carries no fields at all.
func (o ManagerOverride) IsEmpty() bool {
	return o.ManagerAdjustment == nil && o.ManagerNotes == nil && o.CounterOfferSent == nil
}

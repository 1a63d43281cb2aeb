// Package delegation selects the donations a delegation consumes and turns a
// user-chosen amount into a chain request.
package delegation

import (
	"fmt"

	"fundhub/internal/domain"
	"fundhub/internal/money"
)

// sliderSteps is how many increments the amount picker offers.
const sliderSteps = 10

// Selection is the result of aggregating a donation pool.
type Selection struct {
	Token domain.Token
	// Selected holds every pool donation, oldest first.
	Selected []domain.Donation
	// TotalSelected is the sum of AmountRemaining over the whole pool.
	TotalSelected money.Money
	// Available is TotalSelected clamped to the cap, if one was given.
	Available money.Money
	Capped    bool
}

// SelectDonations aggregates a pool already filtered to one source and token
// and ordered by createdAt ascending. A positive target above the available
// amount returns the selection together with ErrInsufficientFunds.
func SelectDonations(pool []domain.Donation, target money.Money, token domain.Token, cap *money.Money) (Selection, error) {
	sel := Selection{
		Token:         token,
		Selected:      make([]domain.Donation, 0, len(pool)),
		TotalSelected: money.Zero(),
	}
	for _, d := range pool {
		if !d.Token.Same(token) {
			return Selection{}, fmt.Errorf("%w: donation %s is in %s, not %s", domain.ErrTokenMismatch, d.ID, d.Token.Symbol, token.Symbol)
		}
		sel.Selected = append(sel.Selected, d)
		sel.TotalSelected = sel.TotalSelected.Add(d.AmountRemaining)
	}

	sel.Available = sel.TotalSelected
	if cap != nil && sel.TotalSelected.GreaterThan(*cap) {
		sel.Available = *cap
		sel.Capped = true
	}

	if target.IsPositive() && target.GreaterThan(sel.Available) {
		return sel, fmt.Errorf("%w: requested %s, available %s", domain.ErrInsufficientFunds, target, sel.Available)
	}
	return sel, nil
}

// CanSubmit reports whether anything can be delegated at all.
func (s Selection) CanSubmit() bool {
	return len(s.Selected) > 0 && s.Available.IsPositive()
}

// DonationIDs lists the selected donation ids in pool order.
func (s Selection) DonationIDs() []string {
	ids := make([]string, len(s.Selected))
	for i, d := range s.Selected {
		ids[i] = d.ID
	}
	return ids
}

// SliderStep is the increment offered by the amount picker: a tenth of the
// available amount, floored to a whole number of the token's smallest unit.
func (s Selection) SliderStep() money.Money {
	step, err := s.Available.DivFloor(sliderSteps)
	if err != nil {
		return money.Zero()
	}
	unit, err := money.FromSmallestUnit("1", s.Token.Decimals)
	if err != nil {
		return money.Zero()
	}
	stepped, err := step.ToStepped(unit)
	if err != nil {
		return money.Zero()
	}
	return stepped
}

// ChainRequest is what the chain collaborator receives for a delegation.
type ChainRequest struct {
	DonationIDs        []string                     `json:"donationIds"`
	AmountSmallestUnit string                       `json:"amount"`
	Token              domain.Token                 `json:"token"`
	Destination        domain.DelegationDestination `json:"destination"`
}

// BuildRequest validates the user-chosen amount against the selection and
// produces the chain request. The full selected set travels with the amount;
// splitting across donations happens on chain.
func (s Selection) BuildRequest(amount money.Money, dest domain.DelegationDestination) (ChainRequest, error) {
	if len(s.Selected) == 0 {
		return ChainRequest{}, domain.ErrNoEligibleDonations
	}
	if !amount.IsPositive() {
		return ChainRequest{}, fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidAmount)
	}
	if amount.GreaterThan(s.Available) {
		return ChainRequest{}, fmt.Errorf("%w: requested %s, available %s", domain.ErrInsufficientFunds, amount, s.Available)
	}
	if err := dest.Validate(); err != nil {
		return ChainRequest{}, err
	}
	units, err := s.Token.SmallestUnit(amount)
	if err != nil {
		return ChainRequest{}, err
	}
	return ChainRequest{
		DonationIDs:        s.DonationIDs(),
		AmountSmallestUnit: units,
		Token:              s.Token,
		Destination:        dest,
	}, nil
}

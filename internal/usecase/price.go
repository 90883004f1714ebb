package usecase

import "regexp"

// PriceNotAvailable is displayed in place of a malformed price
const PriceNotAvailable = "N/A"

// currency symbol, digits, optional two-digit decimals
var priceRegex = regexp.MustCompile(`^\p{Sc}\d+(\.\d{2})?$`)

// DisplayPrice is the display form of a raw product price
type DisplayPrice struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// NormalizePrice returns raw unchanged when it is a well-formed price, the sentinel otherwise.
// No numeric parsing is done.
func NormalizePrice(raw string) DisplayPrice {
	if priceRegex.MatchString(raw) {
		return DisplayPrice{Value: raw, Available: true}
	}
	return DisplayPrice{Value: PriceNotAvailable}
}

func (p DisplayPrice) String() string {
	return p.Value
}

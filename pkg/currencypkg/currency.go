// Package currencypkg provides common currency related functionality for apps.
package currencypkg

// Constants for all supported currencies.
const (
	CAD = "CAD"
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	CHF = "CHF"
)

// SupportedCurrencies holds all the supported currencies.
var SupportedCurrencies = []string{
	CAD,
	USD,
	EUR,
	GBP,
	CHF,
}

// MinorUnits is the number of decimal places every supported currency settles in.
const MinorUnits = 2

// IsSupportedCurrency returns true if the currency is supported.
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}

	return false
}

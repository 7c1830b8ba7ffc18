package money

// Currency is a settlement currency. The storefront quotes catalog prices
// in ARS or USD; orders settle in a single currency.
type Currency string

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == ARS || c == USD
}

package geospatial

import "github.com/shopspring/decimal"

// TruncateFixed renders d with exactly places fractional digits, dropping
// surplus digits toward zero instead of rounding and padding short values
// with zeros. 52.5200089 at 6 places is "52.520008"; -33.867 is "-33.867000".
func TruncateFixed(d decimal.Decimal, places int32) string {
	return d.Truncate(places).StringFixed(places)
}

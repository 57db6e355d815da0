package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const defaultCurrency = "PLN"

// maxDecimal caps parsed amounts; any larger value already clamps after scaling.
const maxDecimal = 1e20

// minorExponents lists ISO 4217 currencies whose minor unit is not 1/100.
var minorExponents = map[string]int{
	"JPY": 0, "KRW": 0, "VND": 0, "ISK": 0, "CLP": 0, "UGX": 0,
	"BHD": 3, "KWD": 3, "OMR": 3, "JOD": 3, "TND": 3, "IQD": 3, "LYD": 3,
}

// MinorExponent returns the number of decimal places of the currency's minor unit.
func MinorExponent(currency string) int {
	if e, ok := minorExponents[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// scaleMinor multiplies a decimal amount by 10^exp and rounds half away from
// zero. It is the only overflow rule for prices: non-positive yields 0 and
// anything past int64 clamps to math.MaxInt64.
func scaleMinor(amount *big.Rat, exp int) int64 {
	if amount.Sign() <= 0 {
		return 0
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
	v := new(big.Rat).Mul(amount, new(big.Rat).SetInt(pow))
	v.Add(v, big.NewRat(1, 2))
	q := new(big.Int).Quo(v.Num(), v.Denom())
	if !q.IsInt64() {
		return math.MaxInt64
	}
	return q.Int64()
}

// decimal reads a JSON or YAML scalar as an exact decimal. Floats use their
// shortest round-trip spelling; json.Number and strings are parsed as written.
func decimal(v any) (*big.Rat, bool) {
	var text string
	switch n := v.(type) {
	case json.Number:
		text = n.String()
	case string:
		text = strings.TrimSpace(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
		text = strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		text = strconv.FormatFloat(f, 'f', -1, 32)
	case int:
		return new(big.Rat).SetInt64(int64(n)), true
	case int64:
		return new(big.Rat).SetInt64(n), true
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(n)), true
	default:
		return nil, false
	}
	if text == "" || strings.ContainsAny(text, "/xXpP_") {
		return nil, false
	}

	// Bound the magnitude before exact parsing; huge exponents are clamped
	// and tiny ones are zero.
	f, err := strconv.ParseFloat(text, 64)
	switch {
	case err == nil && (math.IsNaN(f) || math.IsInf(f, 0)):
		return nil, false
	case err != nil && !errors.Is(err, strconv.ErrRange):
		return nil, false
	case math.Abs(f) > maxDecimal:
		return new(big.Rat).SetFloat64(math.Copysign(maxDecimal, f)), true
	case err != nil:
		return new(big.Rat), true
	}
	r, ok := new(big.Rat).SetString(text)
	return r, ok
}

// FormatPrice renders a minor-unit amount as "120.00 PLN".
func FormatPrice(minor int64, currency string) string {
	exp := MinorExponent(currency)
	if exp == 0 {
		return fmt.Sprintf("%d %s", minor, currency)
	}
	div := int64(math.Pow10(exp))
	whole, frac := minor/div, minor%div
	sign := ""
	if minor < 0 {
		sign = "-"
		whole, frac = -whole, -frac
	}
	return sign + strconv.FormatInt(whole, 10) + "." + fmt.Sprintf("%0*d", exp, frac) + " " + currency
}

// Price is FormatPrice applied to the service's own amount and currency.
func (s Service) Price() string {
	return FormatPrice(s.PriceMinor, s.Currency)
}

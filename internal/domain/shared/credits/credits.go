package credits

import (
	"fmt"
	"math"
)

// PerUSD is the fixed exchange rate between credits and US dollars.
const PerUSD = 10

// Credits is the platform's integer currency unit.
type Credits int64

// Sum adds all amounts.
func Sum(values ...Credits) Credits {
	var total Credits
	for _, v := range values {
		total += v
	}
	return total
}

// Multiply multiplies the amount by an integer factor.
func (c Credits) Multiply(times int64) Credits {
	return c * Credits(times)
}

// PercentOf returns percent% of c, truncated towards zero. percent is clamped to [0,100].
func (c Credits) PercentOf(percent int) Credits {
	percent = clampPercent(percent)
	if percent == 0 {
		return 0
	}
	return c * Credits(percent) / 100
}

// NonNegative returns c or zero when c is negative.
func (c Credits) NonNegative() Credits {
	if c < 0 {
		return 0
	}
	return c
}

// ForMinutes prorates an hourly rate over minutes, rounding half up to a whole credit.
func ForMinutes(hourly Credits, minutes int) Credits {
	if minutes <= 0 || hourly == 0 {
		return 0
	}
	return (hourly*Credits(minutes) + 30) / 60
}

// USD converts credits to dollars. Presentation only.
func (c Credits) USD() float64 {
	return math.Round(float64(c)/PerUSD*100) / 100
}

func (c Credits) FormatUSD() string {
	return fmt.Sprintf("$%.2f", c.USD())
}

func (c Credits) IsZero() bool {
	return c == 0
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

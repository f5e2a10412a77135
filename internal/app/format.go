package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

func FormatCost(usd float64) string {
	return fmt.Sprintf("$%.4f", usd)
}

func FormatTokens(n int) string {
	return humanize.Comma(int64(n))
}

func FormatDuration(minutes float64) string {
	return fmt.Sprintf("%.1f minutes", minutes)
}

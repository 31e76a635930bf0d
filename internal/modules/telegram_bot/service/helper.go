package service

import (
	"fmt"
	"math"
	"strings"
)

// fPrice: точность по величине цены.
func fPrice(v float64) string {
	switch a := math.Abs(v); {
	case a >= 100:
		return fmt.Sprintf("%.2f", v)
	case a >= 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// normalizeSymbol: "btc" -> "BTC-USDT-SWAP", "eth-usdt" -> "ETH-USDT-SWAP".
func normalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if f := strings.Fields(s); len(f) > 0 {
		s = f[0]
	}
	switch {
	case s == "":
		return ""
	case strings.HasSuffix(s, "-SWAP"):
		return s
	case strings.Contains(s, "-"):
		return s + "-SWAP"
	case strings.HasSuffix(s, "USDT") && len(s) > 4:
		return strings.TrimSuffix(s, "USDT") + "-USDT-SWAP"
	default:
		return s + "-USDT-SWAP"
	}
}

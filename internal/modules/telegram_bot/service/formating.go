package service

import (
	"fmt"
	"strings"

	"signal_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func directionIcon(d models.Direction) string {
	switch d {
	case models.DirectionLong:
		return "🟢"
	case models.DirectionShort:
		return "🔴"
	case models.DirectionNeutral:
		return "⚪️"
	default:
		return "⏸"
	}
}

func formatSignal(sig models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* `%s`\n", directionIcon(sig.Direction), sig.Direction, sig.Symbol)

	if !sig.Direction.Directional() {
		fmt.Fprintf(&b, "Уверенность: `%d%%`\n", sig.Confidence)
		fmt.Fprintf(&b, "Причина: %s", tgbot.EscapeText(tgbot.ModeMarkdown, sig.Reason))
		return b.String()
	}

	fmt.Fprintf(&b,
		"Уверенность: `%d%%`\n\n"+
			"Вход: `%s`\n"+
			"Стоп: `%s`\n"+
			"Тейк: `%s` (`%sR`)\n"+
			"Объём: `%.4f`\n",
		sig.Confidence,
		fPrice(sig.Entry),
		fPrice(sig.StopLoss),
		fPrice(sig.TakeProfit),
		f2(sig.RewardToRisk),
		sig.PositionSize,
	)
	if d := sig.Diagnostics; d != nil {
		fmt.Fprintf(&b, "\np=`%s` ATR=`%s` x%s\n", f2(d.Probability), fPrice(d.ATR), f2(d.Multiplier))
		fmt.Fprintf(&b, "ТФ: старший %s, средний %s", d.HigherTrend, d.MiddleTrend)
	}
	if !sig.CandleTime.IsZero() {
		fmt.Fprintf(&b, "\nСвеча: %s UTC", sig.CandleTime.UTC().Format("2006-01-02 15:04"))
	}
	return b.String()
}

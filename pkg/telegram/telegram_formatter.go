package telegram

import (
	"fmt"
	"strings"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/pkg/utils"
	"golang-kis-trader/pkg/vwap"
)

// FormatOrderMessage formats an order outcome as a Markdown message.
func FormatOrderMessage(order *entity.Order) string {
	var sb strings.Builder

	icon := "🟢"
	if order.OrderType == "SELL" {
		icon = "🔴"
	}
	sb.WriteString(fmt.Sprintf("%s *%s %s* `%s`\n", icon, order.OrderType, order.OrderMethod, order.Symbol))
	sb.WriteString(fmt.Sprintf("📦 *Quantity:* %d\n", order.Quantity))
	if order.Price != nil {
		sb.WriteString(fmt.Sprintf("💰 *Price:* %s\n", formatWon(float64(*order.Price))))
	}

	switch order.Status {
	case entity.OrderStatusSubmitted:
		sb.WriteString(fmt.Sprintf("✅ *Status:* submitted (order no. `%s`)\n", order.KISOrderNo))
	case entity.OrderStatusUnknown:
		sb.WriteString("⚠️ *Status:* unknown, check the account before placing it again\n")
	default:
		sb.WriteString(fmt.Sprintf("❌ *Status:* %s\n", strings.ToLower(string(order.Status))))
	}
	if order.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("📝 %s\n", escapeMarkdown(order.ErrorMessage)))
	}
	if order.StrategyID != nil {
		sb.WriteString(fmt.Sprintf("🤖 Strategy #%d\n", *order.StrategyID))
	}
	sb.WriteString(fmt.Sprintf("\n🕒 %s", utils.TimeNowKST().Format("2006-01-02 15:04:05 KST")))

	return sb.String()
}

// FormatRiskVerdictMessage formats a stop loss or take profit verdict of a strategy.
func FormatRiskVerdictMessage(strategy *entity.Strategy, verdict vwap.RiskVerdict, currentPrice float64) string {
	var sb strings.Builder

	header := "🛑 *Stop loss*"
	if verdict.Action == vwap.RiskTakeProfit {
		header = "🎯 *Take profit*"
	}
	sb.WriteString(fmt.Sprintf("%s `%s` (%s)\n", header, strategy.Symbol, escapeMarkdown(strategy.Name)))
	sb.WriteString(fmt.Sprintf("💰 *Current:* %s\n", formatWon(currentPrice)))
	sb.WriteString(fmt.Sprintf("📊 *P/L:* %+.2f%%\n", verdict.ProfitLossPercent))
	sb.WriteString(fmt.Sprintf("📝 %s", escapeMarkdown(verdict.Reason)))

	return sb.String()
}

func formatWon(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-₩" + string(out)
	}
	return "₩" + string(out)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

package service

import (
	"fmt"
	"math"
	"strings"

	"text-stock-tracker/internal/domain"
)

const unavailable = "unavailable"

// ReplyComposer arma el texto de respuesta. No tiene estado ni efectos.
type ReplyComposer struct{}

func (ReplyComposer) Welcome() string {
	return "Welcome to Text Stock Tracker!"
}

// WithWelcome antepone la bienvenida cuando el usuario es nuevo.
func (c ReplyComposer) WithWelcome(isNew bool, body string) string {
	if !isNew {
		return body
	}
	return c.Welcome() + "\n" + body
}

func (ReplyComposer) Help() string {
	return strings.Join([]string{
		"Available commands:",
		"To look up the current price for a company, text us the stock symbol e.g. 'AAPL'.",
		"To find a company's symbol, text us with 'lookup' and the company name, e.g. 'lookup Wal Mart'.",
		"After looking for a company or stock price, text 'more info' for more information.",
	}, "\n")
}

func (ReplyComposer) MoreInfoNoContext() string {
	return "Hello! Try looking up a stock first, for example text 'AAPL'."
}

// MoreInfo detalla la cotización en tres líneas; cada campo faltante se informa
// como "unavailable" sin abortar el resto.
func (ReplyComposer) MoreInfo(q domain.Quote, fallbackSymbol string) string {
	symbol := q.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}
	lines := []string{
		fmt.Sprintf("%s (%s) is currently trading at %s, a change of %s from yesterday.",
			symbol, orUnavailable(q.Name), formatPrice(q.LastPrice), formatChange(q.Change)),
		fmt.Sprintf("%s has a market cap of %s and opened at %s today.",
			symbol, formatMarketCap(q.MarketCap), formatPrice(q.Open)),
		fmt.Sprintf("Today's high price for %s was %s and the low price was %s.",
			symbol, formatPrice(q.High), formatPrice(q.Low)),
	}
	return strings.Join(lines, "\n")
}

func (ReplyComposer) NameMatch(m domain.CompanyMatch) string {
	return fmt.Sprintf("You're probably looking for %s, which is listed on %s as '%s'.",
		orUnavailable(m.Name), orUnavailable(m.Exchange), m.Symbol)
}

func (ReplyComposer) NoMatches(query string) string {
	return fmt.Sprintf("Sorry! We couldn't find any companies matching '%s'.", query)
}

func (ReplyComposer) SymbolQuote(q domain.Quote) string {
	return fmt.Sprintf("%s (%s) is currently trading at %s.", q.Symbol, orUnavailable(q.Name), formatPrice(q.LastPrice))
}

func (ReplyComposer) SymbolNotFound(symbol string) string {
	return fmt.Sprintf("Sorry! We couldn't find the U.S. stock ticker symbol for '%s'.", symbol)
}

func (ReplyComposer) Unknown() string {
	return "Oops! We couldn't understand your query. Text 'commands' to learn more."
}

func (ReplyComposer) GatewayTrouble() string {
	return "Sorry! We're having trouble reaching market data right now. Please try again shortly."
}

func (ReplyComposer) Trouble() string {
	return "Sorry! Something went wrong on our end. Please try again."
}

func (ReplyComposer) Throttled() string {
	return "You're sending messages too quickly. Please wait a minute and try again."
}

// LookupNotSaved se agrega cuando no se pudo persistir el ticker consultado.
func (ReplyComposer) LookupNotSaved() string {
	return "(We couldn't save this lookup, so 'more info' may not work for it.)"
}

func orUnavailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return unavailable
	}
	return s
}

func formatPrice(v *float64) string {
	if !finite(v) {
		return unavailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatChange(v *float64) string {
	if !finite(v) {
		return unavailable
	}
	return fmt.Sprintf("%+.2f", *v)
}

func formatMarketCap(v *float64) string {
	if !finite(v) {
		return unavailable
	}
	abs := math.Abs(*v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", *v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", *v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", *v/1e6)
	default:
		return fmt.Sprintf("$%.0f", *v)
	}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

package service

import (
	"strings"
	"unicode"

	"text-stock-tracker/internal/domain"
)

const (
	helpCommand    = "commands"
	moreInfoPhrase = "more info"
	lookupCommand  = "lookup"
)

// ClassifyMessage mapea el texto crudo a una intención. El orden importa: los
// comandos literales se evalúan antes de la heurística de ticker.
func ClassifyMessage(text string) domain.Intent {
	text = strings.TrimSpace(text)

	if strings.EqualFold(text, helpCommand) {
		return domain.Intent{Kind: domain.IntentHelp}
	}
	if strings.EqualFold(text, moreInfoPhrase) {
		return domain.Intent{Kind: domain.IntentMoreInfo}
	}
	if query, ok := lookupQuery(text); ok {
		return domain.Intent{Kind: domain.IntentLookupByName, Query: query}
	}
	if isTickerShape(text) {
		return domain.Intent{Kind: domain.IntentLookupBySymbol, Symbol: text}
	}
	return domain.Intent{Kind: domain.IntentUnknown}
}

// lookupQuery devuelve lo que sigue a "lookup" si la primera palabra es ese comando.
func lookupQuery(text string) (string, bool) {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return "", false
	}
	if !strings.EqualFold(text[:idx], lookupCommand) {
		return "", false
	}
	query := strings.TrimSpace(text[idx:])
	return query, query != ""
}

// isTickerShape: 1 a 5 letras A-Z, todas mayúsculas.
func isTickerShape(text string) bool {
	if len(text) == 0 || len(text) > domain.MaxSymbolLength {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < 'A' || text[i] > 'Z' {
			return false
		}
	}
	return true
}

package domain

// IntentKind clasifica el propósito de un mensaje entrante.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentHelp
	IntentMoreInfo
	IntentLookupByName
	IntentLookupBySymbol
)

func (k IntentKind) String() string {
	switch k {
	case IntentHelp:
		return "help"
	case IntentMoreInfo:
		return "more_info"
	case IntentLookupByName:
		return "lookup_by_name"
	case IntentLookupBySymbol:
		return "lookup_by_symbol"
	default:
		return "unknown"
	}
}

// Intent es el resultado del clasificador. Query solo aplica a
// IntentLookupByName y Symbol solo a IntentLookupBySymbol.
type Intent struct {
	Kind   IntentKind
	Query  string
	Symbol string
}

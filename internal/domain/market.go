package domain

// CompanyMatch es un resultado de búsqueda de ticker por nombre de empresa.
type CompanyMatch struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
}

// Quote es la cotización de un ticker. Los campos numéricos son opcionales
// porque el proveedor puede omitirlos.
type Quote struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	LastPrice *float64 `json:"last_price,omitempty"`
	Change    *float64 `json:"change,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
}

package questrade

// =============================================================================
// Account Types
// =============================================================================

// Account is a brokerage account linked to the token.
type Account struct {
	Type              string `json:"type"`
	Number            string `json:"number"`
	Status            string `json:"status"`
	IsPrimary         bool   `json:"isPrimary"`
	IsBilling         bool   `json:"isBilling"`
	ClientAccountType string `json:"clientAccountType"`
}

// AccountsResponse represents the API response for the accounts list.
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
	UserID   int64     `json:"userId"`
}

// Position is a holding in an account.
type Position struct {
	Symbol             string  `json:"symbol"`
	SymbolID           int64   `json:"symbolId"`
	OpenQuantity       float64 `json:"openQuantity"`
	ClosedQuantity     float64 `json:"closedQuantity"`
	CurrentMarketValue float64 `json:"currentMarketValue"`
	CurrentPrice       float64 `json:"currentPrice"`
	AverageEntryPrice  float64 `json:"averageEntryPrice"`
	ClosedPnl          float64 `json:"closedPnl"`
	OpenPnl            float64 `json:"openPnl"`
	TotalCost          float64 `json:"totalCost"`
	IsRealTime         bool    `json:"isRealTime"`
	IsUnderReorg       bool    `json:"isUnderReorg"`
}

// PositionsResponse represents the API response for account positions.
type PositionsResponse struct {
	Positions []Position `json:"positions"`
}

// Activity is a single trade, dividend, deposit or other account event.
type Activity struct {
	TradeDate       string  `json:"tradeDate"`
	TransactionDate string  `json:"transactionDate"`
	SettlementDate  string  `json:"settlementDate"`
	Action          string  `json:"action"`
	Symbol          string  `json:"symbol"`
	SymbolID        int64   `json:"symbolId"`
	Description     string  `json:"description"`
	Currency        string  `json:"currency"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
	GrossAmount     float64 `json:"grossAmount"`
	Commission      float64 `json:"commission"`
	NetAmount       float64 `json:"netAmount"`
	Type            string  `json:"type"`
}

// ActivitiesResponse represents the API response for account activities.
type ActivitiesResponse struct {
	Activities []Activity `json:"activities"`
}

// =============================================================================
// Market Types
// =============================================================================

// Symbol describes a tradable instrument.
type Symbol struct {
	Symbol            string  `json:"symbol"`
	SymbolID          int64   `json:"symbolId"`
	Description       string  `json:"description"`
	SecurityType      string  `json:"securityType"`
	ListingExchange   string  `json:"listingExchange"`
	Currency          string  `json:"currency"`
	PrevDayClosePrice float64 `json:"prevDayClosePrice"`
	HighPrice52       float64 `json:"highPrice52"`
	LowPrice52        float64 `json:"lowPrice52"`
	AverageVol3Months int64   `json:"averageVol3Months"`
	AverageVol20Days  int64   `json:"averageVol20Days"`
	OutstandingShares int64   `json:"outstandingShares"`
	Dividend          float64 `json:"dividend"`
	Yield             float64 `json:"yield"`
	IsTradable        bool    `json:"isTradable"`
	IsQuotable        bool    `json:"isQuotable"`
}

// SymbolsResponse represents the API response for symbol lookup.
type SymbolsResponse struct {
	Symbols []Symbol `json:"symbols"`
}

// Quote is a Level 1 market data snapshot.
type Quote struct {
	Symbol         string  `json:"symbol"`
	SymbolID       int64   `json:"symbolId"`
	Tier           string  `json:"tier"`
	BidPrice       float64 `json:"bidPrice"`
	BidSize        int64   `json:"bidSize"`
	AskPrice       float64 `json:"askPrice"`
	AskSize        int64   `json:"askSize"`
	LastTradePrice float64 `json:"lastTradePrice"`
	LastTradeSize  int64   `json:"lastTradeSize"`
	LastTradeTick  string  `json:"lastTradeTick"`
	LastTradeTime  string  `json:"lastTradeTime"`
	Volume         int64   `json:"volume"`
	OpenPrice      float64 `json:"openPrice"`
	HighPrice      float64 `json:"highPrice"`
	LowPrice       float64 `json:"lowPrice"`
	Delay          int     `json:"delay"`
	IsHalted       bool    `json:"isHalted"`
}

// QuotesResponse represents the API response for quotes.
type QuotesResponse struct {
	Quotes []Quote `json:"quotes"`
}

// Candle is one bar of historical price data.
type Candle struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// CandlesResponse represents the API response for historical candles.
type CandlesResponse struct {
	Candles []Candle `json:"candles"`
}

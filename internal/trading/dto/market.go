package dto

// PriceResponse is the current quote of a symbol.
type PriceResponse struct {
	Symbol     string                 `json:"symbol"`
	MarketCode string                 `json:"market_code"`
	Price      float64                `json:"price"`
	Volume     int64                  `json:"volume"`
	ChangeRate float64                `json:"change_rate"`
	Data       map[string]interface{} `json:"data"`
}

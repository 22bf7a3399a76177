package usage

import "time"

// Usage is the token count reported for one completion call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
	Calls  int64 `json:"calls"`
}

func (tc *TokenCounts) Add(u Usage) {
	tc.Input += u.InputTokens
	tc.Output += u.OutputTokens
	tc.Total += u.InputTokens + u.OutputTokens
	tc.Calls++
}

// Pricing is the USD price per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

func (p Pricing) Cost(tc TokenCounts) float64 {
	return float64(tc.Input)/1e6*p.InputPerMillion + float64(tc.Output)/1e6*p.OutputPerMillion
}

type Summary struct {
	Total   TokenCounts            `json:"total"`
	ByStep  map[string]TokenCounts `json:"by_step"`
	Calls   int64                  `json:"calls"`
	CostUSD float64                `json:"cost_est_usd"`
}

// DailyStats is the aggregate of one calendar day.
type DailyStats struct {
	Date   string                 `json:"date"`
	Total  TokenCounts            `json:"total"`
	ByStep map[string]TokenCounts `json:"by_step"`
}

// Recorder receives per-call usage. Implementations must not fail the caller.
type Recorder interface {
	AddCall(step string, u Usage)
}

const dayLayout = "2006-01-02"

func dayKey(day time.Time) string {
	return day.Format(dayLayout)
}

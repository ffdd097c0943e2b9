package contract

import "context"

// Messenger delivers a text message to a recipient on the chat channel.
// Implementations log delivery failures; callers treat a returned error as
// already-reported and never fold it into conversation state.
type Messenger interface {
	Send(ctx context.Context, recipientID, text string) error
}

// Quoter turns a seller credential into a funding quote.
type Quoter interface {
	Compute(ctx context.Context, credential string) (QuoteResult, error)
}

// QuoteResult carries the derived offer together with the aggregate it was
// derived from, so callers can tell a genuine zero-sales result apart from a
// failure.
type QuoteResult struct {
	Offer      int64   `json:"offer"`
	TotalSales float64 `json:"total_sales"`
	Records    int     `json:"records"`
}

// Package bidding validates prospective bids against auction listings.
package bidding

import (
	"fmt"
	"time"
)

// ExpiryWindow is how long a placed bid stays active.
const ExpiryWindow = 24 * time.Hour

// Validate decides whether a proposed bid amount is acceptable. A zero
// current bid means the auction is fresh; a zero reserve means none is set.
// It returns nil when the bid is acceptable, otherwise an error carrying the
// rejection reason. The function performs no I/O.
func Validate(amountCents, currentBidCents, reserveBidCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("bid amount must be positive")
	}
	if reserveBidCents > 0 && amountCents < reserveBidCents {
		return fmt.Errorf("bid must meet the reserve price of %s", formatCents(reserveBidCents))
	}
	if currentBidCents > 0 && amountCents <= currentBidCents {
		return fmt.Errorf("bid must exceed the current bid of %s", formatCents(currentBidCents))
	}
	return nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

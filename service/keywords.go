package service

import "strings"

// cryptoKeywords trigger live market data enrichment when they appear
// anywhere in the user message.
var cryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "price", "market", "crypto", "cryptocurrency",
	"altcoin", "defi", "nft", "blockchain", "trading", "pump", "dump", "moon",
	"hodl", "whale", "bull", "bear", "market cap", "volume", "doge", "ada",
	"bnb", "sol", "matic", "avax", "dot", "link", "uni", "sushi",
}

// NeedsMarketData reports whether the message mentions anything crypto
// related and should get live market context attached
func NeedsMarketData(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range cryptoKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

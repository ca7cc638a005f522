package domain

import "strings"

// CoinIDOverrides maps common user-typed aliases to CoinGecko API
// identifiers. Anything not listed here is passed through lowercased,
// since CoinGecko ids are already lowercase slugs.
var CoinIDOverrides = map[string]string{
	"btc":      "bitcoin",
	"bitcoin":  "bitcoin",
	"eth":      "ethereum",
	"ethereum": "ethereum",
	"sol":      "solana",
	"xrp":      "ripple",
	"ada":      "cardano",
	"doge":     "dogecoin",
	"dogecoin": "dogecoin",
	"dot":      "polkadot",
	"avax":     "avalanche-2",
	"link":     "chainlink",
	"matic":    "matic-network",
	"pepe":     "pepe",
	"pepecoin": "pepe",
	"bonk":     "bonk",
	"trx":      "tron",
}

// ResolveCoinID normalizes a user-supplied coin query to a provider id.
func ResolveCoinID(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if id, ok := CoinIDOverrides[q]; ok {
		return id
	}
	return q
}

// StablecoinSymbols are excluded from FOMO scans; pegged assets produce
// volume spikes with no opportunity behind them.
var StablecoinSymbols = map[string]bool{
	"usdt": true, "usdc": true, "dai": true, "tusd": true, "usdp": true,
	"gusd": true, "alusd": true, "eurt": true, "busd": true, "usdd": true,
	"fdusd": true, "usdn": true, "mim": true, "usde": true, "frax": true,
	"sai": true, "lusd": true, "susd": true, "vai": true, "eurc": true,
	"ageur": true, "eurs": true, "musd": true, "cusd": true, "xaut": true,
	"xusd": true, "paxg": true, "usdx": true, "usds": true, "fei": true,
	"usdk": true, "ousd": true, "husd": true, "xsgd": true, "usd+": true,
	"usdl": true, "pusd": true, "usyc": true,
}

// IsStablecoin reports whether a ticker symbol is a known pegged asset.
func IsStablecoin(symbol string) bool {
	return StablecoinSymbols[strings.ToLower(symbol)]
}

package domain

// TokenPackage is a purchasable bundle of scan tokens. Stars is the
// Telegram Stars price; packages are priced 1:1.
type TokenPackage struct {
	Key    string `json:"key"`
	Tokens int    `json:"tokens"`
	Stars  int    `json:"stars"`
	Title  string `json:"title"`
}

// TokenPackages lists the purchasable bundles in display order.
var TokenPackages = []TokenPackage{
	{Key: "starter", Tokens: 100, Stars: 100, Title: "100 Tokens"},
	{Key: "premium", Tokens: 250, Stars: 250, Title: "250 Tokens"},
	{Key: "pro", Tokens: 500, Stars: 500, Title: "500 Tokens"},
	{Key: "elite", Tokens: 1000, Stars: 1000, Title: "1000 Tokens"},
}

// PackageByKey looks up a token package by its key.
func PackageByKey(key string) (TokenPackage, bool) {
	for _, p := range TokenPackages {
		if p.Key == key {
			return p, true
		}
	}
	return TokenPackage{}, false
}

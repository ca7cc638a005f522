package domain

import "time"

// UserAccount is the durable quota and balance state for one user.
type UserAccount struct {
	UserID           int64     `json:"user_id"`
	PurchasedBalance int       `json:"purchased_balance"`
	DailyFreeUsed    int       `json:"daily_free_used"`
	BonusUsed        int       `json:"bonus_used"`
	BonusExhausted   bool      `json:"bonus_exhausted"`
	LastResetDate    time.Time `json:"last_reset_date"`
	TotalQueries     int       `json:"total_queries"`
	CreatedAt        time.Time `json:"created_at"`
}

// SpendBucket identifies which allowance a debit came from.
type SpendBucket string

const (
	BucketBonus     SpendBucket = "bonus"
	BucketDailyFree SpendBucket = "daily_free"
	BucketPurchased SpendBucket = "purchased"
	BucketNone      SpendBucket = "none"
)

// SpendResult reports the outcome of a single quota debit attempt.
type SpendResult struct {
	Granted bool        `json:"granted"`
	Bucket  SpendBucket `json:"bucket"`
	Message string      `json:"message"`
}

// BalanceSummary is a read-only projection of a user's remaining quota.
type BalanceSummary struct {
	Purchased      int `json:"purchased"`
	DailyRemaining int `json:"daily_remaining"`
	BonusRemaining int `json:"bonus_remaining"`
	TotalAvailable int `json:"total_available"`
}

// DenyReason explains a rejected authorization.
type DenyReason string

const (
	DenyNone     DenyReason = ""
	DenyNoQuota  DenyReason = "no_quota"
	DenyCooldown DenyReason = "cooldown"
)

// AuthorizationResult is the pacing decision for one inbound request.
// RetryAfterSecs is only set for cooldown denials.
type AuthorizationResult struct {
	Allowed        bool       `json:"allowed"`
	Reason         DenyReason `json:"reason,omitempty"`
	RetryAfterSecs int        `json:"retry_after_secs,omitempty"`
}

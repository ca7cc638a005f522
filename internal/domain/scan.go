package domain

// ScanOutcome is the full result of one user-initiated scan: the pacing
// decision, and on success the scored snapshot plus the quota debit.
type ScanOutcome struct {
	Allowed        bool            `json:"allowed"`
	Reason         DenyReason      `json:"reason,omitempty"`
	RetryAfterSecs int             `json:"retry_after_secs,omitempty"`
	Snapshot       *MarketSnapshot `json:"snapshot,omitempty"`
	Result         *ScoreResult    `json:"result,omitempty"`
	Spend          *SpendResult    `json:"spend,omitempty"`
}

package domain

// ContributorRecord is the ledger's view of one contributor: lifetime
// invested amount and current equity percentage (0-100).
type ContributorRecord struct {
	Address          string  `json:"address"`
	TotalInvestedUsd float64 `json:"totalInvestedUsd"`
	EquityPercent    float64 `json:"equityPercent"`
}

// VaultStats holds fund-level return statistics. Multiple is 0 when nothing
// has been invested; Xirr is 0 when the ledger has no cash-flow history.
type VaultStats struct {
	CurrentValue   float64 `json:"currentValue"`
	InvestedAmount float64 `json:"investedAmount"`
	Multiple       float64 `json:"multiple"`
	Xirr           float64 `json:"xirr"`
}

// ContributorStats is one contributor's split of the vault's current value.
type ContributorStats struct {
	Address        string  `json:"address"`
	InvestedAmount float64 `json:"investedAmount"`
	CurrentValue   float64 `json:"currentValue"`
	EquityPercent  float64 `json:"equityPercent"`
	Multiple       float64 `json:"multiple"`
}

// Donation is one recorded donation event for a donor address.
type Donation struct {
	ID                 int     `json:"id"`
	Address            string  `json:"address"`
	Username           string  `json:"username,omitempty"`
	TransactionDate    string  `json:"transactionDate"`
	ContributionAmount float64 `json:"contributionAmount"`
	Currency           string  `json:"currency"`
	EthPriceUsd        float64 `json:"ethPriceUsd"`
	UsdDonateValue     float64 `json:"usdDonateValue"`
	TotalContribution  float64 `json:"totalContribution"`
	FundingRoundID     int     `json:"fundingRoundId"`
}

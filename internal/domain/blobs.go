package domain

// Typed shapes for the JSON blob columns whose structure is actually known.
// Metadata stays a generic map because it is genuinely open-ended.

type Governance struct {
	Model       string   `json:"model,omitempty"`
	QuorumPct   int      `json:"quorum_pct,omitempty"`
	StewardVeto bool     `json:"steward_veto,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

type Budget struct {
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Cap      string `json:"cap,omitempty"`
}

type PayoutRules struct {
	Schedule  string `json:"schedule,omitempty"`
	Threshold string `json:"threshold,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

type Metric struct {
	Name   string `json:"name,omitempty"`
	Target string `json:"target,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

type Terms struct {
	Rate        string `json:"rate,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Deliverable string `json:"deliverable,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Evidence struct {
	URI         string `json:"uri,omitempty"`
	Digest      string `json:"digest,omitempty"`
	Description string `json:"description,omitempty"`
}

type Payout struct {
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	TxHash   string `json:"tx_hash,omitempty"`
}

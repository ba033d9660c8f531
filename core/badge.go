package core

import "time"

// BadgeTier is a badge type and the tokens it costs to mint.
type BadgeTier struct {
	Name string
	Cost int64
}

// CostSchedule is the ordered list of badge tiers, cheapest first.
type CostSchedule []BadgeTier

// DefaultCostSchedule holds the five fixed tiers.
var DefaultCostSchedule = CostSchedule{
	{Name: "Newbie", Cost: 10},
	{Name: "Amateur", Cost: 30},
	{Name: "Intermediate", Cost: 50},
	{Name: "Pro", Cost: 75},
	{Name: "entrePROneur", Cost: 100},
}

// Cost returns the price of the named badge type.
func (c CostSchedule) Cost(badgeType string) (int64, bool) {
	for _, t := range c {
		if t.Name == badgeType {
			return t.Cost, true
		}
	}
	return 0, false
}

// MintOutcome is returned once a mint transaction has been accepted for broadcast.
type MintOutcome struct {
	TxHash          string `json:"tx_hash"`
	TokensDeducted  int64  `json:"tokens_deducted"`
	RemainingTokens int64  `json:"remaining_tokens"`
}

// CredentialRecord is appended once both metadata publications succeed.
type CredentialRecord struct {
	Identity       string `json:"user_address"`
	StudentName    string `json:"student_name"`
	Cohort         string `json:"class_semester"`
	Institution    string `json:"university"`
	BadgeType      string `json:"badge_type"`
	GrantDate      string `json:"grant_date"`
	MetadataURI    string `json:"metadata_uri"`
	CertificateURI string `json:"certificate_url"`
	TokensUsed     int64  `json:"tokens_used"`
}

// Attribute is a single-key metadata attribute, kept as a one-entry map so it
// serializes as {"Student": "..."}.
type Attribute map[string]any

// Metadata is the JSON document pinned for each credential.
type Metadata struct {
	ImageCID       string      `json:"image_cid"`
	CertificateURL string      `json:"certificate_url"`
	Attributes     []Attribute `json:"attributes"`
}

// Attr returns the value of the first attribute named key.
func (m Metadata) Attr(key string) (any, bool) {
	for _, a := range m.Attributes {
		if v, ok := a[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// GrantDateLayout is the layout used for CredentialRecord.GrantDate.
const GrantDateLayout = "2006-01-02"

// GrantDate formats t for a credential record.
func GrantDate(t time.Time) string {
	return t.Format(GrantDateLayout)
}

// Badge contract method names.
const (
	MethodMintBadge      = "mintBadge"
	MethodCanMintBadge   = "canMintBadge"
	MethodGetMintedCount = "getMintedCount"
	MethodBadgeTypes     = "badgeTypes"
	MethodTotalSupply    = "totalSupply"
	MethodTokenURI       = "tokenURI"
)

// ContractCall names a contract method and its arguments.
type ContractCall struct {
	Method string
	Args   []any
}

package types

// PatternCode enumerates the behaviors the pattern engine can detect. Each
// code maps to exactly one cognitive-bias concept id in the knowledge base.
type PatternCode string

const (
	PatternLatteFactor      PatternCode = "LATTE_FACTOR"
	PatternImpulseCluster   PatternCode = "IMPULSE_CLUSTER"
	PatternBigSplurge       PatternCode = "BIG_SPLURGE"
	PatternSubscriptionTrap PatternCode = "SUBSCRIPTION_TRAP"
)

const (
	BiasPresentBias       = "present_bias"
	BiasEmotionalSpending = "emotional_spending"
	BiasAnchoring         = "anchoring"
	BiasSunkCost          = "sunk_cost"
)

// BiasFor returns the concept id a pattern code is attributed to. Unknown
// codes fall through to present_bias so a malformed row still resolves to a
// real concept downstream.
func BiasFor(code PatternCode) string {
	switch code {
	case PatternLatteFactor:
		return BiasPresentBias
	case PatternImpulseCluster:
		return BiasEmotionalSpending
	case PatternBigSplurge:
		return BiasAnchoring
	case PatternSubscriptionTrap:
		return BiasSunkCost
	default:
		return BiasPresentBias
	}
}

// PatternDetails is implemented by the per-code detail records so rule output
// stays statically distinguishable while the engine treats rules uniformly.
type PatternDetails interface {
	Code() PatternCode
}

type LatteFactorDetails struct {
	Merchant   string  `json:"merchant"`
	Count      int     `json:"count"`
	TotalSpent float64 `json:"total_spent"`
	AvgAmount  float64 `json:"avg_amount"`
}

func (LatteFactorDetails) Code() PatternCode { return PatternLatteFactor }

type ImpulseClusterDetails struct {
	Date       string  `json:"date"`
	Count      int     `json:"count"`
	TotalSpent float64 `json:"total_spent"`
}

func (ImpulseClusterDetails) Code() PatternCode { return PatternImpulseCluster }

type BigSplurgeDetails struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

func (BigSplurgeDetails) Code() PatternCode { return PatternBigSplurge }

type SubscriptionTrapDetails struct {
	Merchant  string  `json:"merchant"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
}

func (SubscriptionTrapDetails) Code() PatternCode { return PatternSubscriptionTrap }

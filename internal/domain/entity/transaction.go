package entity

// TransactionStatus tracks confirmation state of a single transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionType classifies what a transaction does.
type TransactionType string

const (
	TypeTransfer            TransactionType = "transfer"
	TypeSwap                TransactionType = "swap"
	TypeBridge              TransactionType = "bridge"
	TypeStake               TransactionType = "stake"
	TypeUnstake             TransactionType = "unstake"
	TypeClaim               TransactionType = "claim"
	TypeApprove             TransactionType = "approve"
	TypeContractInteraction TransactionType = "contract_interaction"
)

// TransactionCategory is the user-facing grouping derived from type and legs.
type TransactionCategory string

const (
	CategorySend    TransactionCategory = "send"
	CategoryReceive TransactionCategory = "receive"
	CategorySwap    TransactionCategory = "swap"
	CategoryStake   TransactionCategory = "stake"
	CategoryUnstake TransactionCategory = "unstake"
	CategoryYield   TransactionCategory = "yield"
	CategoryBridge  TransactionCategory = "bridge"
	CategoryOther   TransactionCategory = "other"
)

// TokenLeg describes one side of a token movement within a transaction.
type TokenLeg struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

// TokenLegs groups the token movements of a transaction.
type TokenLegs struct {
	From *TokenLeg `json:"from,omitempty"`
	To   *TokenLeg `json:"to,omitempty"`
}

// Transaction is a single on-chain transaction as seen by the history
// fetcher or authored for batch execution. Once categorized it is immutable
// except for Status/BlockNumber/GasUsed, which advance as receipts arrive.
type Transaction struct {
	Hash        string              `json:"hash"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Value       string              `json:"value"`
	Data        string              `json:"data,omitempty"`
	GasUsed     string              `json:"gasUsed,omitempty"`
	GasPrice    string              `json:"gasPrice,omitempty"`
	GasLimit    string              `json:"gasLimit,omitempty"`
	Timestamp   int64               `json:"timestamp"`
	BlockNumber int64               `json:"blockNumber,omitempty"`
	Status      TransactionStatus   `json:"status"`
	Type        TransactionType     `json:"type"`
	NetworkID   int64               `json:"networkId"`
	NetworkName string              `json:"networkName"`
	Category    TransactionCategory `json:"category"`
	Tokens      *TokenLegs          `json:"tokens,omitempty"`
	Fee         string              `json:"fee,omitempty"`
}

// Categorize derives the category from the transaction type and token legs.
// The mapping is pure: swap/stake/unstake/bridge types map directly, a
// transaction with both token legs is a swap, everything else is "other".
// Directional send/receive categorization is applied by the history fetcher,
// which knows the queried address.
func (t *Transaction) Categorize() TransactionCategory {
	switch t.Type {
	case TypeSwap:
		return CategorySwap
	case TypeStake:
		return CategoryStake
	case TypeUnstake:
		return CategoryUnstake
	case TypeBridge:
		return CategoryBridge
	case TypeClaim:
		return CategoryYield
	}
	if t.Tokens != nil && t.Tokens.From != nil && t.Tokens.To != nil {
		return CategorySwap
	}
	return CategoryOther
}

// TransactionReceipt is the minimal receipt view the batcher and gas
// analytics need. EffectiveGasPrice is in wei as a decimal string; empty when
// the node did not report one.
type TransactionReceipt struct {
	Success           bool
	BlockNumber       int64
	GasUsed           uint64
	EffectiveGasPrice string
}

// GasAnalytics summarizes recent gas behavior for an address on one network.
type GasAnalytics struct {
	NetworkID         int64    `json:"networkId"`
	AverageGasPrice   string   `json:"averageGasPrice"`
	MedianGasPrice    string   `json:"medianGasPrice"`
	SuggestedGasPrice string   `json:"suggestedGasPrice"`
	GasUsed           string   `json:"gasUsed"`
	Efficiency        string   `json:"efficiency"`
	Recommendations   []string `json:"recommendations"`
}

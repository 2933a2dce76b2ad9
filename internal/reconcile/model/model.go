package model

import "time"

// Customer is a read-only record from the customer directory.
type Customer struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Region          string   `json:"region,omitempty"`
	Active          bool     `json:"active"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"` // explicit, e.g. 10 = 10%
	DiscountInfo    string   `json:"discountInfo,omitempty"`    // free text
}

// ParsedItem is one extracted data row.
type ParsedItem struct {
	RowIndex  int      `json:"rowIndex"` // index in the source text, after ghost-row filtering
	Cells     []string `json:"cells"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone,omitempty"`
	Region    string   `json:"region,omitempty"`
	Courier   string   `json:"courier,omitempty"`
	Quantity  int      `json:"quantity"`
	Weight    float64  `json:"weight,omitempty"`
	Remainder string   `json:"remainder,omitempty"`
}

type Format string

const (
	FormatTab   Format = "tab"
	FormatSpace Format = "space"
)

// Warning reports a dropped row; the batch continues.
type Warning struct {
	RowIndex int    `json:"rowIndex"`
	Message  string `json:"message"`
}

// ParseResult is the outcome of tokenizing and extracting one batch.
// Success is false only when no rows survive ghost-row filtering.
type ParseResult struct {
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Format    Format       `json:"format,omitempty"`
	HasHeader bool         `json:"hasHeader"`
	Headers   []string     `json:"headers,omitempty"`
	Items     []ParsedItem `json:"items"`
	Warnings  []Warning    `json:"warnings"`
}

type MatchStatus string

const (
	StatusVerified    MatchStatus = "VERIFIED"
	StatusSimilar     MatchStatus = "SIMILAR"
	StatusNewCustomer MatchStatus = "NEW_CUSTOMER"
)

type Factor string

const (
	FactorPhone      Factor = "PHONE_MATCH"
	FactorExactName  Factor = "EXACT_NAME"
	FactorFuzzyName  Factor = "FUZZY_NAME"
	FactorRegion     Factor = "REGION_MATCH"
	FactorManualLink Factor = "MANUAL_LINK"
)

type Candidate struct {
	Customer   Customer `json:"customer"`
	Similarity float64  `json:"similarity"`
	Reason     string   `json:"reason"`
}

type MatchResult struct {
	Status     MatchStatus `json:"status"`
	Customer   *Customer   `json:"customer,omitempty"`
	Candidates []Candidate `json:"candidates"`
	Confidence float64     `json:"confidence"`
	Factors    []Factor    `json:"factors"`
}

// DuplicateGroup lists rows sharing one normalized phone, in row order.
type DuplicateGroup struct {
	Phone string       `json:"phone"`
	Items []ParsedItem `json:"items"`
}

type AdjustmentType string

const (
	AdjustmentDamageDiscount AdjustmentType = "DAMAGE_DISCOUNT"
	AdjustmentVIPDiscount    AdjustmentType = "VIP_DISCOUNT"
	AdjustmentSpecialFee     AdjustmentType = "SPECIAL_FEE"
	AdjustmentPenalty        AdjustmentType = "PENALTY"
	AdjustmentOther          AdjustmentType = "OTHER"
)

// Valid reports whether t is one of the known adjustment types.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentDamageDiscount, AdjustmentVIPDiscount, AdjustmentSpecialFee, AdjustmentPenalty, AdjustmentOther:
		return true
	default:
		return false
	}
}

// ManualAdjustment is a signed monetary delta entered by a user.
// Negative amounts are discounts, positive amounts are fees.
type ManualAdjustment struct {
	ID        string         `json:"id"`
	Type      AdjustmentType `json:"type"`
	Amount    float64        `json:"amount"`
	Reason    string         `json:"reason"`
	CreatedBy string         `json:"createdBy"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ShipmentRecord is one committed row. Customer is a snapshot taken at commit time.
type ShipmentRecord struct {
	ID         string      `json:"id"`
	BatchID    string      `json:"batchId"`
	RowIndex   int         `json:"rowIndex"`
	Status     MatchStatus `json:"status"`
	Confidence float64     `json:"confidence"`
	Customer   *Customer   `json:"customer,omitempty"`
	Item       ParsedItem  `json:"item"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type Counters struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Similar   int `json:"similar"`
	New       int `json:"new"`
	Untracked int `json:"untracked"` // rows without a usable phone
	Warnings  int `json:"warnings"`
}

// PricingChange is one entry of a pricing layer's change history.
type PricingChange struct {
	At    time.Time `json:"at"`
	Field string    `json:"field"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	By    string    `json:"by,omitempty"`
}

// PricingLayer is the full price derivation of one shipment.
// Adjustments are shared by reference; recomputation never touches them.
type PricingLayer struct {
	BaseVolume           float64             `json:"baseVolume"`
	UnitPrice            float64             `json:"unitPrice"`
	MasterDiscountRate   float64             `json:"masterDiscountRate"`
	MasterDiscountReason string              `json:"masterDiscountReason,omitempty"`
	BaseAmount           float64             `json:"baseAmount"`
	MasterDiscountAmount float64             `json:"masterDiscountAmount"`
	AutoTotal            float64             `json:"autoTotal"`
	Adjustments          []*ManualAdjustment `json:"manualAdjustments"`
	ManualTotal          float64             `json:"manualTotal"`
	FinalTotal           float64             `json:"finalTotal"`
	History              []PricingChange     `json:"history"`
}

// Shipment pairs a committed record with its pricing.
type Shipment struct {
	Record  ShipmentRecord `json:"record"`
	Pricing PricingLayer   `json:"pricing"`
}

// Batch is what a staging session hands to the persistence store on commit.
type Batch struct {
	ID          string     `json:"id"`
	SourceText  string     `json:"sourceText"`
	Counters    Counters   `json:"counters"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CommittedAt time.Time  `json:"committedAt"`
	Shipments   []Shipment `json:"shipments"`
}

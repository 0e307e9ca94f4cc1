package domain

import (
	"time"
)

// ============================================================
// Contracts
// ============================================================

type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractSent      ContractStatus = "sent"
	ContractSigned    ContractStatus = "signed"
	ContractCompleted ContractStatus = "completed"
)

var contractStatusRank = map[ContractStatus]int{
	ContractDraft:     0,
	ContractSent:      1,
	ContractSigned:    2,
	ContractCompleted: 3,
}

func (s ContractStatus) Valid() bool {
	_, ok := contractStatusRank[s]
	return ok
}

// AtLeast reports whether s is at or beyond other in the contract lifecycle.
func (s ContractStatus) AtLeast(other ContractStatus) bool {
	return contractStatusRank[s] >= contractStatusRank[other]
}

type LineCategory string

const (
	CategoryRoofing LineCategory = "roofing"
	CategoryGutter  LineCategory = "gutter"
	CategoryWindow  LineCategory = "window"
	CategoryOther   LineCategory = "other"
)

// LineCategories lists the categories in display order.
var LineCategories = []LineCategory{CategoryRoofing, CategoryGutter, CategoryWindow, CategoryOther}

func (c LineCategory) Valid() bool {
	switch c {
	case CategoryRoofing, CategoryGutter, CategoryWindow, CategoryOther:
		return true
	}
	return false
}

// Contract is the service agreement signed with a customer.
// Details.TotalAmount always equals the sum of line item totals once saved.
type Contract struct {
	ID         string          `json:"id"`
	LeadID     string          `json:"leadId,omitempty"`
	JobID      string          `json:"jobId,omitempty"`
	Details    ContractDetails `json:"details"`
	LineItems  []LineItem      `json:"lineItems"`
	Signatures Signatures      `json:"signatures"`
	Status     ContractStatus  `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Notes      string          `json:"notes,omitempty"`
}

type ContractDetails struct {
	CustomerName       string          `json:"customerName"`
	CustomerAddress    string          `json:"customerAddress"`
	CustomerPhone      string          `json:"customerPhone"`
	CustomerEmail      string          `json:"customerEmail" validate:"omitempty,email"`
	CompanyRepName     string          `json:"companyRepName"`
	CompanyRepTitle    string          `json:"companyRepTitle"`
	ProjectDescription string          `json:"projectDescription"`
	WorkLocation       string          `json:"workLocation"`
	StartDate          string          `json:"startDate"`
	CompletionDate     string          `json:"completionDate"`
	TotalAmount        float64         `json:"totalAmount"`
	PaymentSchedule    PaymentSchedule `json:"paymentSchedule"`
	Terms              string          `json:"terms"`
	WarrantyInfo       string          `json:"warrantyInfo"`
	WorksheetData      *WorksheetData  `json:"worksheetData,omitempty"`
	ReviewData         *ReviewData     `json:"reviewData,omitempty"`
	ThirdPartyAuth     *ThirdPartyAuth `json:"thirdPartyAuth,omitempty"`
}

type PaymentSchedule struct {
	DepositAmount    float64           `json:"depositAmount"`
	ProgressPayments []ProgressPayment `json:"progressPayments"`
	FinalPayment     float64           `json:"finalPayment"`
}

type ProgressPayment struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type WorksheetData struct {
	Deductible                 float64 `json:"deductible"`
	NonRecoverableDepreciation float64 `json:"nonRecoverableDepreciation"`
	Upgrades                   string  `json:"upgrades"`
	Discounts                  float64 `json:"discounts"`
	WorkNotDoing               string  `json:"workNotDoing"`
	RemainingBalance           float64 `json:"remainingBalance"`
}

type ReviewData struct {
	ShingleType          string               `json:"shingleType"`
	ExistingDamage       string               `json:"existingDamage"`
	LiabilityDisclosures LiabilityDisclosures `json:"liabilityDisclosures"`
}

type LiabilityDisclosures struct {
	ConstructionCaution bool `json:"constructionCaution"`
	DrivewayUsage       bool `json:"drivewayUsage"`
	PuncturedLines      bool `json:"puncturedLines"`
	TermsReverse        bool `json:"termsReverse"`
	PropertyCode        bool `json:"propertyCode"`
}

type ThirdPartyAuth struct {
	HomeownerName    string             `json:"homeownerName"`
	PropertyAddress  string             `json:"propertyAddress"`
	InsuranceCompany string             `json:"insuranceCompany"`
	ClaimNumber      string             `json:"claimNumber"`
	Authorizations   AuthorizationFlags `json:"authorizations"`
}

type AuthorizationFlags struct {
	RequestInspections bool `json:"requestInspections"`
	DiscussSupplements bool `json:"discussSupplements"`
	IssuedPayment      bool `json:"issuedPayment"`
	RequestClaimStatus bool `json:"requestClaimStatus"`
}

// LineItem is one priced row of a contract. Total = Quantity * UnitPrice.
type LineItem struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	UnitPrice   float64      `json:"unitPrice"`
	Total       float64      `json:"total"`
	Category    LineCategory `json:"category"`
}

const (
	defaultRepName  = "John Johnson"
	defaultRepTitle = "Owner"
	defaultTerms    = "Standard roofing terms and conditions apply."
	defaultWarranty = "Materials and workmanship warranty as per manufacturer specifications."
)

// NewContract drafts a contract for a lead, pre-filled from the customer
// info and carrying one roofing line item.
func NewContract(id, lineItemID string, lead *Lead, now time.Time) *Contract {
	c := &Contract{
		ID: id,
		Details: ContractDetails{
			CompanyRepName:  defaultRepName,
			CompanyRepTitle: defaultRepTitle,
			StartDate:       now.Format(DateLayout),
			PaymentSchedule: PaymentSchedule{ProgressPayments: []ProgressPayment{}},
			Terms:           defaultTerms,
			WarrantyInfo:    defaultWarranty,
		},
		LineItems: []LineItem{{
			ID:          lineItemID,
			Description: "Roofing Materials and Installation",
			Quantity:    1,
			Category:    CategoryRoofing,
		}},
		Status:    ContractDraft,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if lead != nil {
		c.LeadID = lead.ID
		c.Details.CustomerName = lead.CustomerInfo.Name
		c.Details.CustomerAddress = lead.CustomerInfo.Address
		c.Details.CustomerPhone = lead.CustomerInfo.Phone
		c.Details.CustomerEmail = lead.CustomerInfo.Email
		c.Details.ProjectDescription = lead.Description
		c.Details.WorkLocation = lead.CustomerInfo.Address
	}
	return c
}

// SetLineItemField edits one line item field from raw form input and keeps
// the line total in step with quantity and unit price.
func SetLineItemField(item *LineItem, field, raw string) error {
	switch field {
	case "description":
		item.Description = raw
	case "quantity":
		item.Quantity = ParseAmount(raw)
	case "unitPrice":
		item.UnitPrice = ParseAmount(raw)
	case "category":
		cat := LineCategory(raw)
		if !cat.Valid() {
			return &ErrValidation{Field: "category", Message: "must be roofing, gutter, window or other"}
		}
		item.Category = cat
	default:
		return &ErrValidation{Field: field, Message: "unknown line item field"}
	}
	item.Total = item.Quantity * item.UnitPrice
	return nil
}

// RecalculateTotal refreshes every line total and sets TotalAmount to their sum.
func RecalculateTotal(c *Contract) float64 {
	sum := 0.0
	for i := range c.LineItems {
		li := &c.LineItems[i]
		li.Total = li.Quantity * li.UnitPrice
		sum += li.Total
	}
	c.Details.TotalAmount = sum
	return sum
}

// CategoryTotals sums line totals per category. Every category is present,
// empty ones as zero.
func CategoryTotals(c *Contract) map[LineCategory]float64 {
	out := make(map[LineCategory]float64, len(LineCategories))
	for _, cat := range LineCategories {
		out[cat] = 0
	}
	for _, li := range c.LineItems {
		out[li.Category] += li.Quantity * li.UnitPrice
	}
	return out
}

// SetContractStatus moves the contract forward. Skipping ahead is allowed,
// going back is not.
func SetContractStatus(c *Contract, status ContractStatus) error {
	if !status.Valid() {
		return &ErrValidation{Field: "status", Message: "unknown contract status " + string(status)}
	}
	if !status.AtLeast(c.Status) {
		return &ErrConflict{Message: "contract " + c.ID + " cannot move from " + string(c.Status) + " back to " + string(status)}
	}
	c.Status = status
	return nil
}

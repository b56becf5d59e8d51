package domain

import "time"

// Tier identifies one of the three progressive-trust verification levels.
type Tier string

const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
	Tier3 Tier = "tier3"
)

// AllTiers lists the tiers in ladder order.
var AllTiers = []Tier{Tier1, Tier2, Tier3}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	switch t {
	case Tier1, Tier2, Tier3:
		return true
	}
	return false
}

// Prerequisite returns the tier that must be verified before t can be entered.
// Tier1 has none.
func (t Tier) Prerequisite() (Tier, bool) {
	switch t {
	case Tier2:
		return Tier1, true
	case Tier3:
		return Tier2, true
	}
	return "", false
}

// OverallStatus is the derived projection over the tiers required for a role.
type OverallStatus string

const (
	OverallNotRequired OverallStatus = "not_required"
	OverallIncomplete  OverallStatus = "incomplete"
	OverallPending     OverallStatus = "pending"
	OverallComplete    OverallStatus = "complete"
)

// Evidence is the provider payload kept alongside a verified fact.
type Evidence struct {
	Provider   string            `json:"provider" bson:"provider"`
	Reference  string            `json:"reference,omitempty" bson:"reference,omitempty"`
	Fields     map[string]string `json:"fields,omitempty" bson:"fields,omitempty"`
	Raw        map[string]any    `json:"-" bson:"raw,omitempty"`
	Skipped    bool              `json:"skipped,omitempty" bson:"skipped,omitempty"`
	VerifiedAt time.Time         `json:"verified_at" bson:"verified_at"`
}

// Tier1State holds the identity tier: email, phone and national ID.
type Tier1State struct {
	Status        TierStatus `json:"status" bson:"status"`
	EmailVerified bool       `json:"email_verified" bson:"email_verified"`
	PhoneVerified bool       `json:"phone_verified" bson:"phone_verified"`
	NINVerified   bool       `json:"nin_verified" bson:"nin_verified"`
	PhoneNumber   string     `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	NIN           *string    `json:"-" bson:"nin,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	PhoneEvidence *Evidence  `json:"phone_evidence,omitempty" bson:"phone_evidence,omitempty"`
	NINEvidence   *Evidence  `json:"nin_evidence,omitempty" bson:"nin_evidence,omitempty"`
}

// Flags returns the three constituent booleans that decide tier1.
func (t Tier1State) Flags() Tier1Flags {
	return Tier1Flags{Email: t.EmailVerified, Phone: t.PhoneVerified, NIN: t.NINVerified}
}

// UtilityBill is the single proof-of-address document behind tier2.
type UtilityBill struct {
	DocumentRef   string     `json:"document_ref" bson:"document_ref"`
	DocumentURL   string     `json:"document_url,omitempty" bson:"document_url,omitempty"`
	DocumentType  string     `json:"document_type" bson:"document_type"`
	UploadedAt    time.Time  `json:"uploaded_at" bson:"uploaded_at"`
	ReviewStatus  TierStatus `json:"review_status" bson:"review_status"`
	ReviewerID    string     `json:"reviewer_id,omitempty" bson:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReviewerNotes string     `json:"reviewer_notes,omitempty" bson:"reviewer_notes,omitempty"`
}

// Tier2State holds the address tier.
type Tier2State struct {
	Status      TierStatus   `json:"status" bson:"status"`
	UtilityBill *UtilityBill `json:"utility_bill,omitempty" bson:"utility_bill,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// BVNCheck is the bank verification number sub-check.
type BVNCheck struct {
	Value        string     `json:"-" bson:"value"`
	ReviewStatus TierStatus `json:"review_status" bson:"review_status"`
	Evidence     *Evidence  `json:"evidence,omitempty" bson:"evidence,omitempty"`
}

// BankAccountCheck is the bank account ownership sub-check.
type BankAccountCheck struct {
	AccountNumber string     `json:"account_number" bson:"account_number"`
	BankCode      string     `json:"bank_code" bson:"bank_code"`
	BankName      string     `json:"bank_name,omitempty" bson:"bank_name,omitempty"`
	AccountName   string     `json:"account_name,omitempty" bson:"account_name,omitempty"`
	ReviewStatus  TierStatus `json:"review_status" bson:"review_status"`
	Evidence      *Evidence  `json:"evidence,omitempty" bson:"evidence,omitempty"`
}

// BusinessCheck is the business registry sub-check.
type BusinessCheck struct {
	Name               string     `json:"name" bson:"name"`
	Type               string     `json:"type" bson:"type"`
	RegistrationNumber string     `json:"registration_number,omitempty" bson:"registration_number,omitempty"`
	ReviewStatus       TierStatus `json:"review_status" bson:"review_status"`
	Evidence           *Evidence  `json:"evidence,omitempty" bson:"evidence,omitempty"`
}

// Tier3State holds the financial/business tier.
type Tier3State struct {
	Status      TierStatus       `json:"status" bson:"status"`
	BVN         BVNCheck         `json:"bvn" bson:"bvn"`
	BankAccount BankAccountCheck `json:"bank_account" bson:"bank_account"`
	Business    BusinessCheck    `json:"business" bson:"business"`
	CompletedAt *time.Time       `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// SubChecks returns the three sub-check statuses that decide tier3.
func (t Tier3State) SubChecks() Tier3SubChecks {
	return Tier3SubChecks{
		BVN:         t.BVN.ReviewStatus,
		BankAccount: t.BankAccount.ReviewStatus,
		Business:    t.Business.ReviewStatus,
	}
}

// UserIdentity is the KYC sub-aggregate of a user. It is created lazily on
// the first submission and versioned for optimistic concurrency.
type UserIdentity struct {
	UserID    string     `json:"user_id" bson:"_id"`
	Role      string     `json:"role" bson:"role"`
	Tier1     Tier1State `json:"tier1" bson:"tier1"`
	Tier2     Tier2State `json:"tier2" bson:"tier2"`
	Tier3     Tier3State `json:"tier3" bson:"tier3"`
	Version   int64      `json:"-" bson:"version"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// NewUserIdentity returns an unsaved identity with every tier not started.
func NewUserIdentity(userID, role string, now time.Time) *UserIdentity {
	return &UserIdentity{
		UserID: userID,
		Role:   role,
		Tier1:  Tier1State{Status: StatusNotStarted},
		Tier2:  Tier2State{Status: StatusNotStarted},
		Tier3: Tier3State{
			Status:      StatusNotStarted,
			BVN:         BVNCheck{ReviewStatus: StatusNotStarted},
			BankAccount: BankAccountCheck{ReviewStatus: StatusNotStarted},
			Business:    BusinessCheck{ReviewStatus: StatusNotStarted},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Status returns the status of the given tier.
func (u *UserIdentity) Status(t Tier) TierStatus {
	switch t {
	case Tier1:
		return u.Tier1.Status
	case Tier2:
		return u.Tier2.Status
	case Tier3:
		return u.Tier3.Status
	}
	return StatusNotStarted
}

// CompletedAt returns when the given tier was first verified, or nil.
func (u *UserIdentity) CompletedAt(t Tier) *time.Time {
	switch t {
	case Tier1:
		return u.Tier1.CompletedAt
	case Tier2:
		return u.Tier2.CompletedAt
	case Tier3:
		return u.Tier3.CompletedAt
	}
	return nil
}

// Statuses returns a snapshot of all tier statuses.
func (u *UserIdentity) Statuses() TierStatuses {
	if u == nil {
		return TierStatuses{Tier1: StatusNotStarted, Tier2: StatusNotStarted, Tier3: StatusNotStarted}
	}
	return TierStatuses{Tier1: u.Tier1.Status, Tier2: u.Tier2.Status, Tier3: u.Tier3.Status}
}

// Clone returns a deep-enough copy for compare-before-save logic.
func (u *UserIdentity) Clone() *UserIdentity {
	if u == nil {
		return nil
	}
	c := *u
	if u.Tier1.NIN != nil {
		nin := *u.Tier1.NIN
		c.Tier1.NIN = &nin
	}
	if u.Tier2.UtilityBill != nil {
		bill := *u.Tier2.UtilityBill
		c.Tier2.UtilityBill = &bill
	}
	return &c
}

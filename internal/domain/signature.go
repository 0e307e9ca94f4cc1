package domain

import (
	"strings"
	"time"
)

type SignerRole string

const (
	RoleCustomer SignerRole = "customer"
	RoleCompany  SignerRole = "company"
)

// SignatureSlot names one of the fixed signature positions on a contract.
type SignatureSlot string

const (
	SlotCompany   SignatureSlot = "company"
	SlotCustomer1 SignatureSlot = "customer1"
	SlotCustomer2 SignatureSlot = "customer2"
	SlotCustomer3 SignatureSlot = "customer3"
	SlotCustomer4 SignatureSlot = "customer4"
)

// Signature is a captured signature image. It is only ever created by an
// explicit signing action.
type Signature struct {
	ID         string     `json:"id"`
	DataURL    string     `json:"dataUrl"`
	Timestamp  time.Time  `json:"timestamp"`
	SignerName string     `json:"signerName"`
	SignerRole SignerRole `json:"signerRole"`
}

type Signatures struct {
	Company   *Signature `json:"company,omitempty"`
	Customer1 *Signature `json:"customer1,omitempty"`
	Customer2 *Signature `json:"customer2,omitempty"`
	Customer3 *Signature `json:"customer3,omitempty"`
	Customer4 *Signature `json:"customer4,omitempty"`
}

func (s *Signatures) slot(name SignatureSlot) **Signature {
	switch name {
	case SlotCompany:
		return &s.Company
	case SlotCustomer1:
		return &s.Customer1
	case SlotCustomer2:
		return &s.Customer2
	case SlotCustomer3:
		return &s.Customer3
	case SlotCustomer4:
		return &s.Customer4
	}
	return nil
}

// Get returns the signature in a slot, nil when unsigned or unknown.
func (s Signatures) Get(name SignatureSlot) *Signature {
	if p := s.slot(name); p != nil {
		return *p
	}
	return nil
}

// Sign stores a signature in slot, replacing any earlier one. Once the
// company and the first customer have signed, a draft or sent contract
// becomes signed.
func Sign(c *Contract, slot SignatureSlot, id, signerName, dataURL string, now time.Time) (*Signature, error) {
	p := c.Signatures.slot(slot)
	if p == nil {
		return nil, &ErrValidation{Field: "slot", Message: "must be company or customer1..customer4"}
	}
	if !strings.HasPrefix(dataURL, "data:image/") {
		return nil, &ErrValidation{Field: "dataUrl", Message: "must be an image data URL"}
	}
	if strings.TrimSpace(signerName) == "" {
		return nil, &ErrValidation{Field: "signerName", Message: "required"}
	}

	role := RoleCustomer
	if slot == SlotCompany {
		role = RoleCompany
	}
	sig := &Signature{
		ID:         id,
		DataURL:    dataURL,
		Timestamp:  now.UTC(),
		SignerName: signerName,
		SignerRole: role,
	}
	*p = sig

	if c.Signatures.Company != nil && c.Signatures.Customer1 != nil && !c.Status.AtLeast(ContractSigned) {
		c.Status = ContractSigned
	}
	return sig, nil
}

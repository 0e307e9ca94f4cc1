package domain

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Supplements = append([]Supplement(nil), j.Supplements...)
	if out.Supplements == nil {
		out.Supplements = []Supplement{}
	}
	return &out
}

// Clone returns a deep copy of the lead.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	out := *l
	if l.LastContactDate != nil {
		t := *l.LastContactDate
		out.LastContactDate = &t
	}
	if l.NextFollowUp != nil {
		t := *l.NextFollowUp
		out.NextFollowUp = &t
	}
	return &out
}

// Clone returns a deep copy of the contract.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	out := *c
	out.LineItems = append([]LineItem(nil), c.LineItems...)
	if out.LineItems == nil {
		out.LineItems = []LineItem{}
	}
	out.Details.PaymentSchedule.ProgressPayments = append([]ProgressPayment(nil), c.Details.PaymentSchedule.ProgressPayments...)
	if c.Details.WorksheetData != nil {
		w := *c.Details.WorksheetData
		out.Details.WorksheetData = &w
	}
	if c.Details.ReviewData != nil {
		r := *c.Details.ReviewData
		out.Details.ReviewData = &r
	}
	if c.Details.ThirdPartyAuth != nil {
		t := *c.Details.ThirdPartyAuth
		out.Details.ThirdPartyAuth = &t
	}
	out.Signatures = Signatures{
		Company:   cloneSig(c.Signatures.Company),
		Customer1: cloneSig(c.Signatures.Customer1),
		Customer2: cloneSig(c.Signatures.Customer2),
		Customer3: cloneSig(c.Signatures.Customer3),
		Customer4: cloneSig(c.Signatures.Customer4),
	}
	return &out
}

func cloneSig(s *Signature) *Signature {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

package models

import (
	"fmt"
	"strings"
	"time"

	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
)

type DocumentStatus string

const (
	DocumentPending           DocumentStatus = "pending"
	DocumentComplete          DocumentStatus = "complete"
	DocumentApproved          DocumentStatus = "approved"
	DocumentMissing           DocumentStatus = "missing"
	DocumentReuploadRequested DocumentStatus = "reupload_requested"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentComplete, DocumentApproved, DocumentMissing, DocumentReuploadRequested:
		return true
	}
	return false
}

// DocumentFilter narrows the document list across all clients. An empty
// Status matches every status; Search matches the document or client name.
type DocumentFilter struct {
	Status DocumentStatus
	Search string
}

// Section groups documents on the client detail page.
type Section string

const (
	SectionPersonalInfo   Section = "personal_info"
	SectionEmployment     Section = "employment_income"
	SectionSelfEmployment Section = "self_employment"
	SectionInvestment     Section = "investment_income"
	SectionRental         Section = "rental_income"
	SectionDeductions     Section = "deductions"
	SectionMedical        Section = "medical_expenses"
	SectionDonations      Section = "donations"
	SectionTuition        Section = "tuition"
	SectionChildcare      Section = "childcare"
	SectionRRSP           Section = "rrsp"
	SectionOther          Section = "other"
)

var sectionLabels = map[Section]string{
	SectionPersonalInfo:   "Personal Information",
	SectionEmployment:     "Employment Income",
	SectionSelfEmployment: "Self-Employment",
	SectionInvestment:     "Investment Income",
	SectionRental:         "Rental Income",
	SectionDeductions:     "Deductions",
	SectionMedical:        "Medical Expenses",
	SectionDonations:      "Donations",
	SectionTuition:        "Tuition",
	SectionChildcare:      "Childcare",
	SectionRRSP:           "RRSP Contributions",
	SectionOther:          "Other",
}

func (s Section) Label() string {
	if l, ok := sectionLabels[s]; ok {
		return l
	}
	return string(s)
}

func ParseSection(raw string) (Section, error) {
	s := Section(strings.TrimSpace(raw))
	if _, ok := sectionLabels[s]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document section %q", raw))
	}
	return s, nil
}

// Document is an uploaded file belonging to one client and one section.
type Document struct {
	ID             id.DocumentID  `json:"id"`
	ClientID       id.ClientID    `json:"clientId"`
	Section        Section        `json:"section"`
	Name           string         `json:"name"`
	URL            string         `json:"url,omitempty"`
	Status         DocumentStatus `json:"status"`
	IsMissing      bool           `json:"isMissing"`
	MissingMessage string         `json:"missingMessage,omitempty"`
	UploadedAt     time.Time      `json:"uploadedAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func NewDocument(documentID id.DocumentID, clientID id.ClientID, section Section, name, url string, now time.Time) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document name cannot be empty")
	}
	return &Document{
		ID:         documentID,
		ClientID:   clientID,
		Section:    section,
		Name:       name,
		URL:        strings.TrimSpace(url),
		Status:     DocumentPending,
		UploadedAt: now,
		UpdatedAt:  now,
	}, nil
}

// IsVerified is true for complete or approved documents that are not
// flagged missing.
func (d *Document) IsVerified() bool {
	return (d.Status == DocumentComplete || d.Status == DocumentApproved) && !d.IsMissing
}

// MarkMissing flags the document. Repeating the call with the same message
// leaves the same state.
func (d *Document) MarkMissing(message string, now time.Time) {
	d.Status = DocumentMissing
	d.IsMissing = true
	d.MissingMessage = message
	d.UpdatedAt = now
}

// MarkVerified approves the document and clears any missing flag.
func (d *Document) MarkVerified(now time.Time) {
	d.Status = DocumentApproved
	d.IsMissing = false
	d.MissingMessage = ""
	d.UpdatedAt = now
}

// VerifiedCount counts documents that pass IsVerified.
func VerifiedCount(docs []*Document) int {
	n := 0
	for _, d := range docs {
		if d.IsVerified() {
			n++
		}
	}
	return n
}

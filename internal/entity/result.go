package entity

import (
	"maps"

	"github.com/joseph-ayodele/idextract/constants"
)

// ExtractionResult is the structured record produced for one document. Optional
// fields are nil when nothing was found; a field is never set to an empty string.
type ExtractionResult struct {
	DocumentType   constants.DocumentType `json:"document_type"`
	Country        constants.Country      `json:"country"`
	DocumentNumber *string                `json:"document_number,omitempty"`
	PersonalInfo   PersonalInfo           `json:"personal_info"`
	DocumentInfo   DocumentInfo           `json:"document_info"`
	AdditionalInfo map[string]string      `json:"additional_info,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// PersonalInfo holds the holder's details.
type PersonalInfo struct {
	LastName    *string `json:"last_name,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	BirthDate   *Date   `json:"birth_date,omitempty"`
	BirthPlace  *string `json:"birth_place,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Address     *string `json:"address,omitempty"`
	Profession  *string `json:"profession,omitempty"`
}

// DocumentInfo holds details about the document itself.
type DocumentInfo struct {
	IssueDate        *Date   `json:"issue_date,omitempty"`
	ExpiryDate       *Date   `json:"expiry_date,omitempty"`
	IssuingAuthority *string `json:"issuing_authority,omitempty"`
}

// Additional info keys written by the extractor and enrichers.
const (
	InfoFatherName     = "father_name"
	InfoMotherName     = "mother_name"
	InfoTaxAuthority   = "tax_authority"
	InfoTaxType        = "tax_type"
	InfoProfessionType = "profession_type"
	InfoMRZ            = "mrz_format"
)

// NewExtractionResult returns an empty result with both axes set to unknown.
func NewExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		DocumentType: constants.DocUnknown,
		Country:      constants.CountryUnknown,
	}
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SetInfo records an additional_info entry; empty values are ignored.
func (r *ExtractionResult) SetInfo(key, value string) {
	if value == "" {
		return
	}
	if r.AdditionalInfo == nil {
		r.AdditionalInfo = make(map[string]string)
	}
	r.AdditionalInfo[key] = value
}

// Warn appends a non-fatal note about a dropped or suspicious value.
func (r *ExtractionResult) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Clone returns a deep copy, so cached results can be handed out safely.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := *r
	out.DocumentNumber = cloneStr(r.DocumentNumber)
	out.PersonalInfo = PersonalInfo{
		LastName:    cloneStr(r.PersonalInfo.LastName),
		FirstName:   cloneStr(r.PersonalInfo.FirstName),
		BirthDate:   cloneDate(r.PersonalInfo.BirthDate),
		BirthPlace:  cloneStr(r.PersonalInfo.BirthPlace),
		Gender:      cloneStr(r.PersonalInfo.Gender),
		Nationality: cloneStr(r.PersonalInfo.Nationality),
		Address:     cloneStr(r.PersonalInfo.Address),
		Profession:  cloneStr(r.PersonalInfo.Profession),
	}
	out.DocumentInfo = DocumentInfo{
		IssueDate:        cloneDate(r.DocumentInfo.IssueDate),
		ExpiryDate:       cloneDate(r.DocumentInfo.ExpiryDate),
		IssuingAuthority: cloneStr(r.DocumentInfo.IssuingAuthority),
	}
	if r.AdditionalInfo != nil {
		out.AdditionalInfo = maps.Clone(r.AdditionalInfo)
	}
	if r.Warnings != nil {
		out.Warnings = append([]string(nil), r.Warnings...)
	}
	return &out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

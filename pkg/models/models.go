package models

import (
	"strings"
	"time"
)

// Catalog models

// DocumentCategory is the display label of a document type the generator can draft
type DocumentCategory string

const (
	CategoryResidentialLease    DocumentCategory = "Residential Lease"
	CategoryCommercialLease     DocumentCategory = "Commercial Lease"
	CategoryServiceAgreement    DocumentCategory = "Service Agreement"
	CategoryConsultingAgreement DocumentCategory = "Consulting Agreement"
	CategoryNDA                 DocumentCategory = "Non-Disclosure Agreement (NDA)"
	CategorySalesContract       DocumentCategory = "Sales/Purchase Contract"
	CategoryEmployment          DocumentCategory = "Employment Agreement"
	CategorySublease            DocumentCategory = "Sublease Agreement"
	CategoryCorporate           DocumentCategory = "Corporate Contract"
	CategoryPolicy              DocumentCategory = "Policy Document"
	CategoryForm                DocumentCategory = "Legal Form/Notice"
)

// DocumentTemplate is an immutable catalog entry describing one document type
type DocumentTemplate struct {
	ID             string           `json:"id"`
	Name           DocumentCategory `json:"name"`
	Description    string           `json:"description"`
	Icon           string           `json:"icon"`
	RequiredFields []string         `json:"requiredFields"`
}

// FormValues maps a required field name to the value the user entered
type FormValues map[string]string

// Clone returns an independent copy of the values
func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// GeneratedDocument is a drafted legal document ready for display or export
type GeneratedDocument struct {
	Title    string           `json:"title"`
	Category DocumentCategory `json:"category"`
	Content  string           `json:"content"` // Markdown
	Date     time.Time        `json:"date"`
}

// Analysis models

// RiskLevel is the coarse classification of how unfavorable a document is to the signer
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel normalizes s and reports whether it names a known level
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, true
	case RiskMedium:
		return RiskMedium, true
	case RiskHigh:
		return RiskHigh, true
	}
	return "", false
}

// AnalysisResult is the structured risk report produced from an uploaded document.
// Values are only ever built by the validating parser and are treated as read-only.
type AnalysisResult struct {
	Summary                 string    `json:"summary"`
	RiskLevel               RiskLevel `json:"riskLevel"`
	Risks                   []string  `json:"risks"`
	PlainEnglishTranslation string    `json:"plainEnglishTranslation"`
	HiddenClauses           []string  `json:"hiddenClauses"`
}

// UploadedFile is a document selected for analysis
type UploadedFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Size returns the payload size in bytes
func (f UploadedFile) Size() int64 { return int64(len(f.Data)) }

// IsPDF reports whether the file is a PDF document
func (f UploadedFile) IsPDF() bool { return f.MIMEType == "application/pdf" }

// AudioClip is a finished microphone recording
type AudioClip struct {
	MIMEType string
	Data     []byte
}

// Size returns the payload size in bytes
func (c AudioClip) Size() int64 { return int64(len(c.Data)) }

// Chat models

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of an in-memory conversation transcript
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Preference models

// Theme is the persisted color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme maps a stored value to a theme, defaulting to light
func ParseTheme(s string) Theme {
	if Theme(strings.ToLower(strings.TrimSpace(s))) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

package naming

import (
	"strings"
	"time"

	"belegsort/internal/services/gemini"
	"belegsort/internal/textutil"
)

const (
	// maxBaseLength caps the filename before the extension is appended.
	maxBaseLength = 180

	unknownDate    = "unknown-date"
	unknownVendor  = "Unbekannt"
	defaultDocType = "Anderes"
)

// Policy derives filenames from analysis results. The company name fills the
// recipient slot when the analyzer could not determine one.
type Policy struct {
	CompanyName string
}

// BuildName computes the canonical filename for a successfully analyzed
// document:
//
//	{date} - {vendor} - {type} - {recipient}[ - {customer}][ - {account}] - {description}.{ext}
//
// Empty optional segments are omitted; mandatory slots fall back to
// placeholders so the schema stays recognizable.
func (p Policy) BuildName(result gemini.Result, originalName string) string {
	date := result.Date
	if date == "" {
		date = unknownDate
	}
	vendor := result.Vendor
	if vendor == "" {
		vendor = unknownVendor
	}
	docType := result.DocumentType
	if docType == "" {
		docType = defaultDocType
	}
	recipient := result.Recipient
	if recipient == "" {
		recipient = p.CompanyName
	}
	description := result.Description
	if description == "" {
		description = stem(originalName)
	}

	segments := []string{date, vendor, docType, recipient}
	if result.Customer != "" {
		segments = append(segments, result.Customer)
	}
	if result.Account != "" {
		segments = append(segments, result.Account)
	}
	segments = append(segments, description)

	return assemble(segments, extension(originalName))
}

// FallbackName computes the degraded filename used when analysis failed. The
// document is still renamed and archived; the original stem is preserved so
// nothing identifying is lost.
func (p Policy) FallbackName(originalName string, modTime time.Time) string {
	date := unknownDate
	if !modTime.IsZero() {
		date = modTime.Format("2006-01-02")
	}
	segments := []string{date, unknownVendor, defaultDocType, p.CompanyName, stem(originalName)}
	return assemble(segments, extension(originalName))
}

func assemble(segments []string, ext string) string {
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = textutil.SanitizeFileNamePart(seg)
		if seg == "" {
			continue
		}
		cleaned = append(cleaned, seg)
	}
	base := textutil.Truncate(strings.Join(cleaned, " - "), maxBaseLength)
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func stem(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}

func extension(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 && idx < len(name)-1 {
		return strings.ToLower(name[idx+1:])
	}
	return ""
}

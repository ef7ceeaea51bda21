package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"belegsort/internal/accounts"
	"belegsort/internal/textutil"
)

type analyzerPayload struct {
	Date         string `json:"date"`
	Issuer       string `json:"issuer"`
	DocumentType string `json:"document_type"`
	Recipient    string `json:"recipient"`
	Customer     string `json:"customer"`
	Account      string `json:"account"`
	Amount       any    `json:"amount"`
	Description  string `json:"description"`
}

// parseResult interprets cleaned analyzer output. It succeeds when a JSON
// object can be extracted; individual missing fields stay empty and are
// never fatal.
func parseResult(raw string, table *accounts.Table) (Result, bool) {
	var payload analyzerPayload
	if err := DecodeAnalyzerJSON(raw, &payload); err != nil {
		return Result{}, false
	}

	result := Result{
		Date:           normalizeDate(payload.Date),
		Vendor:         textutil.SanitizeFileNamePart(payload.Issuer),
		DocumentType:   textutil.SanitizeFileNamePart(payload.DocumentType),
		Recipient:      textutil.SanitizeFileNamePart(payload.Recipient),
		Customer:       textutil.SanitizeFileNamePart(payload.Customer),
		Amount:         normalizeAmount(payload.Amount),
		Description:    textutil.SanitizeFileNamePart(payload.Description),
		ParseSucceeded: true,
	}

	account := strings.TrimSpace(payload.Account)
	if acct, ok := table.Match(account); ok {
		result.Account = acct.Label()
	} else {
		result.Account = textutil.SanitizeFileNamePart(account)
	}

	return result, true
}

// normalizeDate accepts YYYY-MM-DD, optionally with a trailing time portion,
// and rejects everything else so the naming policy falls back to
// "unknown-date" instead of embedding garbage.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 10 {
		value = value[:10]
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return ""
	}
	return value
}

func normalizeAmount(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return textutil.SanitizeFileNamePart(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return ""
	}
}

// DecodeAnalyzerJSON decodes JSON from analyzer output, handling common
// formatting quirks: surrounding prose, markdown code fences, and trailing
// commentary.
func DecodeAnalyzerJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	return json.Unmarshal([]byte(sanitized), target)
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

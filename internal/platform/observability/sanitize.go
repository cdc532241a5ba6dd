package observability

import "unicode"

const defaultStringLimit = 256

// sanitizeString drops control characters and limits length to avoid log injection.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultStringLimit
	}

	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return string(cleaned)
}

// SanitizeText prepares user typed text such as search terms for logging.
func SanitizeText(text string) string {
	return sanitizeString(text, 120)
}

// SanitizeFilename prepares an uploaded file name for logging.
func SanitizeFilename(name string) string {
	return sanitizeString(name, 96)
}

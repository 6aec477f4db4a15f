package aggregate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ParsePage reads the page and limit query parameters. Missing values fall
// back to page 1 and DefaultLimit; limits above MaxLimit are clamped.
func ParsePage(q url.Values) (Page, error) {
	page := Page{Number: 1, Limit: DefaultLimit}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperrors.Validation("page must be a positive integer")
		}
		page.Number = n
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperrors.Validation("limit must be a positive integer")
		}
		page.Limit = min(n, MaxLimit)
	}

	return page, nil
}

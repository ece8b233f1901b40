// Package posting turns raw scraped records into canonical postings.
package posting

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/amishk599/jobtrack/internal/model"
)

// UnknownCompany replaces a missing company name. Company is not part of
// identity so a blank one is not a reason to reject.
const UnknownCompany = "Unknown Company"

// Normalize trims every field of raw, fills defaults and computes MatchURL.
// fallbackSource is used when the record carries no source name.
func Normalize(raw model.RawPosting, fallbackSource string) (model.Posting, error) {
	p := model.Posting{
		Source:      strings.TrimSpace(raw.Source),
		ExternalID:  strings.TrimSpace(raw.ExternalID),
		Title:       strings.TrimSpace(raw.Title),
		Company:     strings.TrimSpace(raw.Company),
		Location:    strings.TrimSpace(raw.Location),
		SalaryRange: strings.TrimSpace(raw.SalaryRange),
		JobType:     strings.TrimSpace(raw.JobType),
		URL:         strings.TrimSpace(raw.URL),
		Description: strings.TrimSpace(raw.Description),
	}

	if p.Title == "" {
		return model.Posting{}, &model.ValidationError{Field: "title", Reason: "is missing"}
	}
	if p.URL == "" && p.ExternalID == "" {
		return model.Posting{}, &model.ValidationError{Field: "url", Reason: "and external_id are both missing"}
	}
	if p.Company == "" {
		p.Company = UnknownCompany
	}
	if p.Source == "" {
		p.Source = strings.TrimSpace(fallbackSource)
	}

	if id := strings.TrimSpace(raw.IdentityURL); id != "" {
		p.MatchURL = MatchURL(id)
	} else {
		p.MatchURL = MatchURL(p.URL)
	}
	return p, nil
}

// MatchURL strips the query string and fragment from rawURL.
func MatchURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}

// URLKey is the identity key for a url: the hex sha256 of its MatchURL.
// It returns "" for an empty url so that url-less postings never collide.
func URLKey(rawURL string) string {
	m := MatchURL(rawURL)
	if m == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(m))
	return hex.EncodeToString(sum[:])
}

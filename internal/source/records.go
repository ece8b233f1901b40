package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/amishk599/jobtrack/internal/model"
)

// Kind identifies which job board a feed comes from.
type Kind string

const (
	KindSeek     Kind = "seek"
	KindLinkedIn Kind = "linkedin"
	KindIndeed   Kind = "indeed"
	KindTradeMe  Kind = "trademe"
)

// ParseKind validates a configured source kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSeek, KindLinkedIn, KindIndeed, KindTradeMe:
		return k, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Record is one scraped job in the shape a board's scraper emits it.
type Record interface {
	RawPosting() model.RawPosting
}

// fields is the wire shape shared by every board's scraper output.
type fields struct {
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	SalaryRange string `json:"salary_range"`
	JobType     string `json:"job_type"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (f fields) raw(kind Kind) model.RawPosting {
	src := f.Source
	if strings.TrimSpace(src) == "" {
		src = string(kind)
	}
	return model.RawPosting{
		Source:      src,
		ExternalID:  f.ExternalID,
		Title:       f.Title,
		Company:     f.Company,
		Location:    f.Location,
		SalaryRange: f.SalaryRange,
		JobType:     f.JobType,
		URL:         f.URL,
		Description: extractText(f.Description),
	}
}

var (
	seekJobID     = regexp.MustCompile(`/job/(\d+)`)
	linkedInJobID = regexp.MustCompile(`/view/(?:[^/?#]*-)?(\d+)`)
	tradeMeJobID  = regexp.MustCompile(`/listing/(\d+)`)
)

// SeekRecord is a Seek NZ listing. Its external id is the bare numeric job id.
type SeekRecord struct{ fields }

func (r SeekRecord) RawPosting() model.RawPosting {
	p := r.raw(KindSeek)
	if strings.TrimSpace(p.ExternalID) == "" {
		p.ExternalID = firstGroup(seekJobID, r.URL)
	}
	return p
}

// LinkedInRecord is a LinkedIn listing, ids prefixed with "linkedin_".
type LinkedInRecord struct{ fields }

func (r LinkedInRecord) RawPosting() model.RawPosting {
	p := r.raw(KindLinkedIn)
	if strings.TrimSpace(p.ExternalID) == "" {
		if id := firstGroup(linkedInJobID, r.URL); id != "" {
			p.ExternalID = "linkedin_" + id
		}
	}
	return p
}

// IndeedRecord is an Indeed listing. Indeed links are all /viewjob?jk=KEY, so
// the job key is folded into the identity url.
type IndeedRecord struct {
	fields
	JobKey string `json:"jk"`
}

func (r IndeedRecord) RawPosting() model.RawPosting {
	p := r.raw(KindIndeed)
	key := strings.TrimSpace(r.JobKey)
	if key == "" {
		if u, err := url.Parse(strings.TrimSpace(r.URL)); err == nil {
			key = u.Query().Get("jk")
		}
	}
	if key == "" {
		return p
	}
	if strings.TrimSpace(p.ExternalID) == "" {
		p.ExternalID = "indeed_" + key
	}
	if base := strings.TrimSpace(r.URL); base != "" {
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
		p.IdentityURL = strings.TrimSuffix(base, "/") + "/" + key
	}
	return p
}

// TradeMeRecord is a TradeMe Jobs listing, ids prefixed with "trademe_".
type TradeMeRecord struct{ fields }

func (r TradeMeRecord) RawPosting() model.RawPosting {
	p := r.raw(KindTradeMe)
	if strings.TrimSpace(p.ExternalID) == "" {
		if id := firstGroup(tradeMeJobID, r.URL); id != "" {
			p.ExternalID = "trademe_" + id
		}
	}
	return p
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Decode parses a feed body into records of the given kind. The body is
// either a JSON array of records or an object with a "jobs" array.
func Decode(kind Kind, data []byte) ([]Record, error) {
	switch kind {
	case KindSeek:
		return decodeAs[SeekRecord](data)
	case KindLinkedIn:
		return decodeAs[LinkedInRecord](data)
	case KindIndeed:
		return decodeAs[IndeedRecord](data)
	case KindTradeMe:
		return decodeAs[TradeMeRecord](data)
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

func decodeAs[T Record](data []byte) ([]Record, error) {
	var items []T
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Jobs []T `json:"jobs"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding feed: %w", err)
		}
		items = wrapped.Jobs
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out, nil
}

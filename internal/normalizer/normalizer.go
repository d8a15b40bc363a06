// Package normalizer separates guest-authored text from platform boilerplate
// in booking-platform notification emails.
//
// Each booking platform gets one normalizer tuned to that platform's email
// layout. Extraction is a best-effort line scan: a normalizer is allowed to
// return nil on a sub-format it does not recognize rather than fail loudly.
package normalizer

import (
	"strings"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

// Platform identifiers as persisted on knowledge items.
const (
	PlatformVRBO    = "vrbo"
	PlatformAirbnb  = "airbnb"
	PlatformBooking = "booking.com"
	PlatformDirect  = "direct"
)

// Normalizer recognizes and parses one booking channel's email format.
type Normalizer interface {
	// Platform returns the platform identifier.
	Platform() string

	// Detect reports whether this normalizer handles the message, based on
	// the sender address.
	Detect(msg model.InboundMessage) bool

	// ExtractGuestMessage returns a copy of the message with BodyPlain
	// reduced to the guest-authored text, or nil when no guest text remains
	// after stripping platform furniture.
	ExtractGuestMessage(msg model.InboundMessage) *model.InboundMessage

	// ExtractThreadID recovers the platform-assigned thread id from the body
	// or subject, or returns "" when the format does not carry one.
	ExtractThreadID(body, subject string) string
}

// PropertyIDExtractor is implemented by normalizers whose email format
// carries a recoverable property id.
type PropertyIDExtractor interface {
	ExtractPropertyID(body, subject string) string
}

// Registry resolves messages to normalizers in fixed priority order:
// platform-specific normalizers first, the direct catch-all last.
type Registry struct {
	normalizers []Normalizer
}

// NewRegistry builds the standard registry. operatorDomains are the
// operator's own sending domains; mail from them is host-to-host traffic and
// resolves to no normalizer.
func NewRegistry(operatorDomains []string) *Registry {
	return &Registry{
		normalizers: []Normalizer{
			vrboNormalizer{},
			airbnbNormalizer{},
			bookingNormalizer{},
			directNormalizer{operatorDomains: operatorDomains},
		},
	}
}

// Resolve returns the first normalizer whose Detect matches, or nil when
// none do. First match wins; order never changes at runtime.
func (r *Registry) Resolve(msg model.InboundMessage) Normalizer {
	for _, n := range r.normalizers {
		if n.Detect(msg) {
			return n
		}
	}
	return nil
}

// senderDomain extracts the lowercased domain from an address like
// "Alaina Capasso <messages@vrbo.com>" or a bare "messages@vrbo.com".
func senderDomain(from string) string {
	addr := from
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			addr = from[i+1 : i+j]
		}
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}

// domainMatches reports whether domain equals base or is a subdomain of it,
// so messages.homeaway.com matches a homeaway.com rule.
func domainMatches(domain, base string) bool {
	return domain == base || strings.HasSuffix(domain, "."+base)
}

// extractGuestLines runs the shared line-oriented state machine: skip banner
// lines until real content appears, collect content, stop at the first footer
// line. transform, when non-nil, rewrites each collected line (used to strip
// role labels) and may drop a line by returning ok=false.
func extractGuestLines(body string, isBanner, isFooter func(string) bool, transform func(string) (string, bool)) string {
	var collected []string
	inContent := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))

		if !inContent {
			if trimmed == "" || isBanner(trimmed) {
				continue
			}
			inContent = true
		}

		if isFooter(trimmed) {
			break
		}

		if transform != nil {
			out, ok := transform(trimmed)
			if !ok {
				continue
			}
			trimmed = out
		}

		collected = append(collected, trimmed)
	}

	// Drop trailing blank lines left behind by the footer cut.
	for len(collected) > 0 && collected[len(collected)-1] == "" {
		collected = collected[:len(collected)-1]
	}

	return strings.TrimSpace(strings.Join(collected, "\n"))
}

// guestCopy returns msg with its body replaced by the extracted guest text,
// or nil when nothing was extracted.
func guestCopy(msg model.InboundMessage, text string) *model.InboundMessage {
	if text == "" {
		return nil
	}
	out := msg
	out.BodyPlain = text
	out.BodyHTML = ""
	return &out
}

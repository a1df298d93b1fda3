package spamfilter

import (
	"regexp"
	"strings"

	"token_aggregator/internal/domain/entity"
)

// defaultKeywords are promotional phrases that almost never appear in the
// symbol or contract id of a legitimate fungible token.
var defaultKeywords = []string{
	"airdrop",
	"giveaway",
	"claim",
	"free",
	"raffle",
	"reward",
	"prize",
	"bonus",
	"visit",
}

// urlPattern matches URL-shaped substrings: explicit schemes, www. hosts and
// common promo TLDs. Chain-native suffixes like ".near" deliberately stay out.
var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.|\.(com|net|org|io|xyz|site|fun|app|finance)(/|$|\s))`)

// attentionGlyphs are eye-catching characters used to make a planted token
// stand out in a wallet listing.
const attentionGlyphs = "✅❗⚠\U0001f381\U0001f4b0\U0001f4b8\U0001f680\U0001f525"

// Config tunes the classifier. The zero value reproduces the default policy.
type Config struct {
	// Keywords replaces the built-in promotional keyword list when non-empty.
	Keywords []string
	// IncludeBareTokens, when true, keeps non-scam tokens that carry neither
	// an icon nor a reference. The default (false) treats such tokens as
	// noise: unverified tokens with no descriptive metadata are not assumed
	// safe.
	IncludeBareTokens bool
}

// Classifier decides whether a token belongs in the output. It is a pure
// predicate over the token record and the allow-list membership; it is
// evaluated identically regardless of chain.
type Classifier struct {
	keywords    []string
	includeBare bool
}

// New builds a Classifier from immutable startup configuration.
func New(cfg Config) *Classifier {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Classifier{keywords: lowered, includeBare: cfg.IncludeBareTokens}
}

// Include applies the full three-step policy: allow-list override, scam
// pattern matching over symbol, id and reference, then the descriptive
// metadata requirement.
func (c *Classifier) Include(tok entity.Token, allowListed bool) bool {
	if allowListed {
		return true
	}
	if c.matchesAny(tok.Symbol, tok.ID, tok.Reference) {
		return false
	}
	if tok.Icon == "" && tok.Reference == "" {
		return c.includeBare
	}
	return true
}

// IncludeID is the reduced two-step variant for adapters whose enumeration
// exposes only the raw token identifier: allow-list override, then pattern
// matching against the identifier. The metadata step is skipped because there
// is no metadata to test.
func (c *Classifier) IncludeID(tokenID string, allowListed bool) bool {
	if allowListed {
		return true
	}
	return !c.matches(tokenID)
}

func (c *Classifier) matchesAny(fields ...string) bool {
	for _, f := range fields {
		if f != "" && c.matches(f) {
			return true
		}
	}
	return false
}

func (c *Classifier) matches(s string) bool {
	lowered := strings.ToLower(s)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	if urlPattern.MatchString(s) {
		return true
	}
	return strings.ContainsAny(s, attentionGlyphs)
}

// Package trust decides whether a message sender is trusted enough to
// bypass classification at the mail gate.
package trust

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker matches sender domains against a configured trust list. A
// trusted domain covers itself and every subdomain, so "corp.example"
// also trusts "mail.corp.example".
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a trust checker. Configured domains are
// normalized to lowercase; blank entries are dropped.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.ToLower(strings.Trim(strings.TrimSpace(domain), "."))
		if d == "" {
			continue
		}
		normalized = append(normalized, d)
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted reports whether the sender's domain is a trusted domain or
// a subdomain of one. Addresses that fail RFC 5322 parsing are never
// trusted.
func (c *Checker) IsTrusted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain, ok := senderDomain(from)
	if !ok {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is trusted",
					zap.String("domain", domain),
					zap.String("trusted", trusted),
					zap.String("sender", from))
			}
			return true
		}
	}

	return false
}

// senderDomain extracts the domain part of a sender, accepting both
// bare addresses and display-name forms like "Alice <alice@corp.example>".
func senderDomain(from string) (string, bool) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 || at == len(addr.Address)-1 {
		return "", false
	}
	return strings.ToLower(addr.Address[at+1:]), true
}

package settings

import "unicode/utf8"

// Origin describes where the editing session is hosted. The configuration
// record mirrors it so games render links against the right deployment.
type Origin struct {
	HTTPS bool
	Host  string
}

// TruncateDomain cuts host down to the DomainMaxLen byte budget. The cut
// backs off to the previous rune boundary so no partial UTF-8 sequence is
// ever serialized.
func TruncateDomain(host string) string {
	if len(host) <= DomainMaxLen {
		return host
	}
	cut := DomainMaxLen
	for cut > 0 && !utf8.RuneStart(host[cut]) {
		cut--
	}
	return host[:cut]
}

// NewDomain reports whether the session origin differs from the domain the
// record was created with.
func (s *Settings) NewDomain(origin Origin) bool {
	return s.Domain != TruncateDomain(origin.Host)
}

// ApplyOrigin rewrites the protocol and domain fields from the session
// origin, truncating the host to the on-chain budget.
func (s *Settings) ApplyOrigin(origin Origin) {
	s.HTTPS = origin.HTTPS
	s.Domain = TruncateDomain(origin.Host)
}

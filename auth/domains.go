package auth

import (
	"fmt"
	"strings"
)

// Domain is a Deliverect API host.
type Domain string

const (
	DomainRestoProduction  Domain = "api.deliverect.com"
	DomainRestoStaging     Domain = "api.staging.deliverect.com"
	DomainRetailProduction Domain = "api.deliverect.io"
	DomainRetailStaging    Domain = "api.staging.deliverect.io"

	DefaultDomain = DomainRestoProduction
)

var knownDomains = []Domain{
	DomainRestoProduction,
	DomainRestoStaging,
	DomainRetailProduction,
	DomainRetailStaging,
}

func Domains() []Domain {
	return append([]Domain(nil), knownDomains...)
}

// ParseDomain accepts any known host, case-insensitively; empty input maps
// to DefaultDomain.
func ParseDomain(value string) (Domain, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultDomain, nil
	}
	for _, domain := range knownDomains {
		if string(domain) == value {
			return domain, nil
		}
	}
	return "", fmt.Errorf("auth: domain %q is invalid", value)
}

func (d Domain) BaseURL() string {
	return "https://" + string(d)
}

func (d Domain) TokenURL() string {
	return d.BaseURL() + "/oauth/token"
}

// Audience is the API audience requested for tokens on this domain.
func (d Domain) Audience() string {
	return d.BaseURL() + "/api/v2/"
}

func (d Domain) Label() string {
	switch d {
	case DomainRestoProduction:
		return "Resto Production"
	case DomainRestoStaging:
		return "Resto Staging"
	case DomainRetailProduction:
		return "Retail Production"
	case DomainRetailStaging:
		return "Retail Staging"
	default:
		return string(d)
	}
}

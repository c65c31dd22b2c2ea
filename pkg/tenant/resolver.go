package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resolver extracts a tenant identifier from an HTTP request.
type Resolver interface {
	// Resolve returns the tenant identifier carried by the request, or an
	// empty string if the request carries none.
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc is an adapter to allow ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// HeaderResolver reads the tenant identifier from an HTTP header.
type HeaderResolver struct {
	// HeaderName is the header carrying the identifier (e.g. "X-Tenant-ID").
	HeaderName string
}

// NewHeaderResolver creates a header resolver, defaulting to "X-Tenant-ID".
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &HeaderResolver{HeaderName: headerName}
}

// Resolve extracts the tenant identifier from the configured header.
func (hr *HeaderResolver) Resolve(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get(hr.HeaderName)), nil
}

// SubdomainResolver extracts the tenant identifier from the request subdomain
// (e.g. "acme" from "acme.app.example.com").
type SubdomainResolver struct {
	// Suffix is the base domain to strip, including the leading dot
	// (e.g. ".app.example.com").
	Suffix string
}

// NewSubdomainResolver creates a new subdomain resolver.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

// Resolve extracts the subdomain portion of the request host.
func (sr *SubdomainResolver) Resolve(r *http.Request) (string, error) {
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if sr.Suffix == "" || !strings.HasSuffix(host, sr.Suffix) {
		return "", nil
	}

	sub := host[:len(host)-len(sr.Suffix)]
	if sub == "" || sub == "www" || strings.Contains(sub, ".") {
		return "", nil
	}
	return sub, nil
}

// CompositeResolver tries multiple resolvers in order until one yields an
// identifier.
type CompositeResolver struct {
	Resolvers []Resolver
}

// NewCompositeResolver creates a new composite resolver.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

// Resolve returns the first non-empty identifier produced by the chain.
func (c *CompositeResolver) Resolve(r *http.Request) (string, error) {
	var errs []error
	for _, resolver := range c.Resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("composite resolver: %w", errors.Join(errs...))
	}
	return "", nil
}

package auth

import (
	"net/http"
	"strings"
)

// Method names how upstream requests are authenticated.
type Method string

const (
	MethodNone   Method = "none"
	MethodBearer Method = "bearer"
	MethodCookie Method = "cookie"
)

// Credentials is the configured upstream identity: a bearer token, a raw
// cookie string, or both. A bearer token takes precedence for API calls.
type Credentials struct {
	BearerToken string
	Cookies     string
}

// Cookie is one name=value pair parsed from the configured cookie string.
type Cookie struct {
	Name  string
	Value string
}

func NewCredentials(bearerToken, cookies string) Credentials {
	return Credentials{
		BearerToken: strings.TrimSpace(bearerToken),
		Cookies:     strings.TrimSpace(cookies),
	}
}

func (c Credentials) Method() Method {
	switch {
	case c.BearerToken != "":
		return MethodBearer
	case c.Cookies != "":
		return MethodCookie
	default:
		return MethodNone
	}
}

func (c Credentials) Configured() bool {
	return c.Method() != MethodNone
}

// Headers returns the header set for one authenticated request. It is empty
// when nothing is configured; callers must surface the resulting 401/403 as
// an auth failure.
func (c Credentials) Headers() http.Header {
	h := http.Header{}
	switch c.Method() {
	case MethodBearer:
		h.Set("Authorization", "Bearer "+c.BearerToken)
	case MethodCookie:
		h.Set("Cookie", c.Cookies)
	}
	return h
}

// ParsedCookies splits the semicolon-delimited cookie string. Entries with
// an empty name are dropped; a missing value becomes the empty string.
func (c Credentials) ParsedCookies() []Cookie {
	return ParseCookies(c.Cookies)
}

func ParseCookies(raw string) []Cookie {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ";")
	out := make([]Cookie, 0, len(parts))
	for _, part := range parts {
		name, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Cookie{Name: name, Value: strings.TrimSpace(value)})
	}
	return out
}

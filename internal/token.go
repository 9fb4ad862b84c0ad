package internal

import "strings"

// TokenSource reads a credential from the request. It reports false when
// the request carries none.
type TokenSource func(Context) (string, bool)

// FirstToken tries sources in order and returns the first non-empty value.
func FirstToken(sources ...TokenSource) TokenSource {
	return func(c Context) (string, bool) {
		for _, src := range sources {
			if v, ok := src(c); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// BearerToken reads "Authorization: Bearer <token>". The scheme is matched
// case-insensitively.
func BearerToken() TokenSource {
	return func(c Context) (string, bool) {
		scheme, token, ok := strings.Cut(c.Header("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
}

func HeaderToken(name string) TokenSource {
	return func(c Context) (string, bool) {
		v := c.Header(name)
		return v, v != ""
	}
}

func QueryToken(name string) TokenSource {
	return func(c Context) (string, bool) {
		v := c.Query(name)
		return v, v != ""
	}
}

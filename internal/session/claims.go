package session

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// decodeClaims reads the payload segment of a JWT without verifying its
// signature. Verification is the backend's job; these claims only drive UI
// affordances and must never be treated as a security boundary. Malformed
// tokens yield nil claims, never an error.
func decodeClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func claimString(claims jwt.MapClaims, key string) string {
	if claims == nil {
		return ""
	}
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// DisplayName derives the user-facing name: explicit identity first, then
// the username, user, or email claims, then a placeholder.
func (s *Store) DisplayName() string {
	sess, ok := s.Get()
	if !ok {
		return "-"
	}

	if sess.User != nil && sess.User.Username != "" {
		return sess.User.Username
	}

	claims := decodeClaims(sess.Token)
	for _, key := range []string{"username", "user", "email"} {
		if v := claimString(claims, key); v != "" {
			return v
		}
	}
	return "-"
}

// Role derives the role claim: explicit identity first, then the role
// claim, then the first entry of a roles list claim.
func (s *Store) Role() string {
	sess, ok := s.Get()
	if !ok {
		return ""
	}

	if sess.User != nil && sess.User.Role != "" {
		return sess.User.Role
	}

	claims := decodeClaims(sess.Token)
	if v := claimString(claims, "role"); v != "" {
		return v
	}
	if roles, ok := claims["roles"].([]any); ok && len(roles) > 0 {
		if v, ok := roles[0].(string); ok {
			return v
		}
	}
	return ""
}

// IsAdmin reports whether the derived role contains "admin",
// case-insensitively. Absent role means not admin.
func (s *Store) IsAdmin() bool {
	role := s.Role()
	if role == "" {
		return false
	}
	return strings.Contains(strings.ToLower(role), "admin")
}

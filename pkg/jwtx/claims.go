package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Both are overridable through configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// RolePrefix marks a normalized role name.
const RolePrefix = "ROLE_"

// roleDelimiter separates role names inside the single "roles" claim.
const roleDelimiter = ","

var errMissingUserID = errors.New("jwtx: missing userId claim")

// Kind distinguishes the two token classes.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Identity is the authenticated principal produced by a successful
// validation. It never carries credential material.
type Identity struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the identity holds the role, comparing normalized
// names.
func (i Identity) HasRole(role string) bool {
	want := NormalizeRole(role)
	for _, r := range i.Roles {
		if NormalizeRole(r) == want {
			return true
		}
	}
	return false
}

// Claims is the flat claim set carried by both token kinds. Refresh tokens
// leave Roles empty since they authorize issuance, not resource access.
type Claims struct {
	Subject   string `json:"sub"`
	UserID    int64  `json:"userId"`
	Roles     string `json:"roles,omitempty"`
	ExpiresAt *Time  `json:"exp"`
	IssuedAt  *Time  `json:"iat,omitempty"`
}

// NewClaims builds the claim set for the given identity and token kind.
func NewClaims(id Identity, kind Kind, now time.Time, lifetime time.Duration) Claims {
	c := Claims{
		Subject:   id.Username,
		UserID:    id.UserID,
		ExpiresAt: NewTime(now.Add(lifetime)),
		IssuedAt:  NewTime(now),
	}
	if kind == KindAccess {
		c.Roles = JoinRoles(id.Roles)
	}
	return c
}

// Identity converts decoded claims into the identity handed to authorization.
func (c Claims) Identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Username: c.Subject,
		Roles:    SplitRoles(c.Roles),
	}
}

// ValidateExpiry rejects a token at or after its exp instant.
func (c Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}

// UnmarshalJSON enforces presence of the userId claim, which has no usable
// zero value.
func (c *Claims) UnmarshalJSON(b []byte) error {
	type alias Claims
	aux := struct {
		*alias
		UserID *int64 `json:"userId"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.UserID == nil {
		return errMissingUserID
	}
	c.UserID = *aux.UserID
	return nil
}

/* jwt.Claims implementation */

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt.numericDate(), nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt.numericDate(), nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// NormalizeRole prepends RolePrefix unless the name already carries it.
// Applying it twice yields the same result as applying it once.
func NormalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if role == "" || strings.HasPrefix(role, RolePrefix) {
		return role
	}
	return RolePrefix + role
}

// JoinRoles serializes role names into the single delimited claim value.
func JoinRoles(roles []string) string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return strings.Join(out, roleDelimiter)
}

// SplitRoles parses the delimited claim value back into a normalized,
// duplicate-free list that keeps the original order.
func SplitRoles(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, roleDelimiter)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		r := NormalizeRole(p)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Time is a NumericDate (RFC 7519) kept at millisecond precision. Whole
// seconds encode as plain integers, anything else as a decimal with exactly
// three fractional digits so it survives a round trip without float error.
type Time struct {
	time.Time
}

// NewTime truncates t to milliseconds.
func NewTime(t time.Time) *Time {
	return &Time{Time: t.Truncate(time.Millisecond).UTC()}
}

func (t *Time) numericDate() *jwt.NumericDate {
	if t == nil {
		return nil
	}
	return &jwt.NumericDate{Time: t.Time}
}

func (t Time) MarshalJSON() ([]byte, error) {
	ms := t.UnixMilli()
	sec, frac := ms/1000, ms%1000
	if frac < 0 {
		sec--
		frac += 1000
	}
	if frac == 0 {
		return strconv.AppendInt(nil, sec, 10), nil
	}
	return fmt.Appendf(nil, "%d.%03d", sec, frac), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("jwtx: numeric date: %w", err)
	}
	s := n.String()

	// Exponent notation is legal JSON but rare; accept float precision there.
	if strings.ContainsAny(s, "eE") {
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("jwtx: numeric date: %w", err)
		}
		t.Time = time.UnixMilli(int64(math.Round(f * 1000))).UTC()
		return nil
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return fmt.Errorf("jwtx: numeric date: %w", err)
	}
	if len(fracPart) > 3 {
		fracPart = fracPart[:3]
	}
	for len(fracPart) < 3 {
		fracPart += "0"
	}
	ms, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return fmt.Errorf("jwtx: numeric date: %w", err)
	}
	if strings.HasPrefix(intPart, "-") {
		ms = -ms
	}
	t.Time = time.UnixMilli(sec*1000 + ms).UTC()
	return nil
}

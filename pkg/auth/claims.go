package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

// Claim names used by the identity provider besides the configurable role claim.
const (
	ClaimEmail       = "email"
	ClaimName        = "name"
	ClaimUsername    = "cognito:username"
	ClaimPhoneNumber = "phone_number"
)

// Identity is what a bearer token says about its holder. Role is empty when
// the token carries no recognised role.
type Identity struct {
	Subject     string
	Role        enums.Role
	Email       string
	Name        string
	PhoneNumber string
}

func identityFromClaims(claims jwt.MapClaims, roleClaim string) Identity {
	id := Identity{
		Email:       stringClaim(claims, ClaimEmail),
		Name:        stringClaim(claims, ClaimName),
		PhoneNumber: stringClaim(claims, ClaimPhoneNumber),
	}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = strings.TrimSpace(sub)
	}
	if id.Name == "" {
		id.Name = stringClaim(claims, ClaimUsername)
	}
	if role, err := enums.ParseRole(strings.ToLower(stringClaim(claims, roleClaim))); err == nil {
		id.Role = role
	}
	return id
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, ok := claims[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

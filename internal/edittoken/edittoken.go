// Package edittoken signs the version of a record an edit form was rendered
// from, so a later submit can detect that the record changed underneath it.
package edittoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ignite/internal/employee"
)

// ErrInvalidToken covers malformed, expired, forged and mismatched tokens.
var ErrInvalidToken = errors.New("edittoken: invalid token")

// Claims represents the token payload. Subject is the record id.
type Claims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies edit tokens with HS256.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(key, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs the fingerprint of rec.
func (i *Issuer) Issue(rec employee.Record) (string, error) {
	now := i.now()
	claims := Claims{
		Fingerprint: Fingerprint(rec),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   rec.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign edit token: %w", err)
	}
	return token, nil
}

// Verify validates token and checks it was issued for record id.
func (i *Issuer) Verify(token, id string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject != id {
		return Claims{}, fmt.Errorf("%w: issued for %q", ErrInvalidToken, claims.Subject)
	}
	return *claims, nil
}

// Fingerprint hashes every field of rec in a fixed order.
func Fingerprint(rec employee.Record) string {
	h := sha256.New()
	for _, f := range []string{
		rec.ID,
		rec.FirstName,
		rec.LastName,
		rec.Email,
		rec.PhoneNumber,
		string(rec.Gender),
		rec.ProfilePicture,
		rec.CreatedAt,
	} {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"

	PurposeVerifyEmail = "verify_email"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token issued for another purpose")
)

type AccessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c *AccessClaims) UserID() (uint, error) {
	return parseSubject(c.Subject)
}

type VerifyClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *VerifyClaims) UserID() (uint, error) {
	return parseSubject(c.Subject)
}

func parseSubject(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func SignAccessToken(secret []byte, userID uint, role, email string, exp time.Time) (string, error) {
	claims := AccessClaims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SignVerifyToken(secret []byte, userID uint, exp time.Time) (string, error) {
	claims := VerifyClaims{
		Purpose: PurposeVerifyEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(secret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func VerifyClaimsFromToken(tokenStr string, secret []byte) (*VerifyClaims, error) {
	var claims VerifyClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(secret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != PurposeVerifyEmail {
		return nil, ErrWrongPurpose
	}
	return &claims, nil
}

package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TeamClaims is the payload of an access token.
type TeamClaims struct {
	TeamID uint `json:"team_id"`
	jwt.RegisteredClaims
}

type TokenService struct {
	teams      TeamService
	secret     []byte
	issuer     string
	expiration time.Duration
}

func NewTokenService(teams TeamService, secret, issuer string, expiration time.Duration) *TokenService {
	return &TokenService{
		teams:      teams,
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: expiration,
	}
}

// Attempt checks the credentials and issues a token for the matching team.
func (s *TokenService) Attempt(ctx context.Context, email, password string) (string, error) {
	team, err := s.teams.VerifyCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.Issue(team.TeamID)
}

func (s *TokenService) Issue(teamID uint) (string, error) {
	now := time.Now()
	claims := TeamClaims{
		TeamID: teamID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(teamID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrTokenCreation, err)
	}
	return signed, nil
}

// Parse validates tokenString and returns the team it was issued to.
func (s *TokenService) Parse(tokenString string) (uint, error) {
	claims := &TeamClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.TeamID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.TeamID, nil
}

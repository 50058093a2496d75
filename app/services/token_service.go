package services

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/campusforge/placement-pipeline/utils"
	"github.com/golang-jwt/jwt/v5"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenService handles JWT session token validation and the service-to-service
// bearer credential that gates the privileged internal endpoints. Session
// tokens are issued by the portal's auth service; this service only validates
// them, plus issues staff tokens for CLI/ops use.
type TokenService interface {
	GenerateStudentTokens(studentID uint) (accessToken, refreshToken string, err error)
	ValidateStudentToken(token string) (*StudentTokenClaims, error)
	GenerateStaffTokens(staffID uint) (accessToken, refreshToken string, err error)
	ValidateStaffToken(token string) (*StaffTokenClaims, error)
	ValidateServiceToken(token string) error
	RevokeToken(token string) error
	IsTokenRevoked(token string) bool
}

// StudentTokenClaims represents the claims in a student session JWT
type StudentTokenClaims struct {
	StudentID uint      `json:"student_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // "access" or "refresh"
	TokenID   string    `json:"jti"`        // JWT ID for token revocation
}

// StaffTokenClaims represents claims for placement office staff JWTs
type StaffTokenClaims struct {
	StaffID   uint      `json:"staff_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
	TokenID   string    `json:"jti"`
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	signingMethod   jwt.SigningMethod
	secretKey       []byte
	serviceToken    []byte
	issuer          string
	audience        string
	mu              sync.RWMutex // Mutex for concurrent access to revokedTokens
	revokedTokens   map[string]time.Time
}

// NewTokenService creates a token service. The service token is a static
// credential distinct from session signing material.
func NewTokenService(accessTokenTTL, refreshTokenTTL time.Duration, issuer, audience, secretKey, serviceToken string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if serviceToken == "" {
		return nil, fmt.Errorf("service token is required")
	}

	return &TokenServiceImpl{
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		signingMethod:   jwt.SigningMethodHS256,
		secretKey:       []byte(secretKey),
		serviceToken:    []byte(serviceToken),
		issuer:          issuer,
		audience:        audience,
		revokedTokens:   make(map[string]time.Time),
	}, nil
}

// GenerateStudentTokens generates access and refresh tokens for a student
func (s *TokenServiceImpl) GenerateStudentTokens(studentID uint) (accessToken, refreshToken string, err error) {
	return s.generateTokenPair("student_id", studentID)
}

// GenerateStaffTokens generates access and refresh tokens for a staff member
func (s *TokenServiceImpl) GenerateStaffTokens(staffID uint) (accessToken, refreshToken string, err error) {
	return s.generateTokenPair("staff_id", staffID)
}

func (s *TokenServiceImpl) generateTokenPair(subjectKey string, subjectID uint) (accessToken, refreshToken string, err error) {
	now := utils.UTCNow()

	// Generate unique token IDs
	accessTokenID, err := generateTokenID()
	if err != nil {
		return "", "", err
	}

	refreshTokenID, err := generateTokenID()
	if err != nil {
		return "", "", err
	}

	accessClaims := jwt.MapClaims{
		subjectKey:   subjectID,
		"token_type": "access",
		"jti":        accessTokenID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTokenTTL).Unix(),
		"iss":        s.issuer,
		"aud":        s.audience,
	}

	accessToken, err = s.generateToken(accessClaims)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		subjectKey:   subjectID,
		"token_type": "refresh",
		"jti":        refreshTokenID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.refreshTokenTTL).Unix(),
		"iss":        s.issuer,
		"aud":        s.audience,
	}

	refreshToken, err = s.generateToken(refreshClaims)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateStudentToken validates a student session JWT
func (s *TokenServiceImpl) ValidateStudentToken(token string) (*StudentTokenClaims, error) {
	claims, err := s.parseAndValidate(token, "student_id")
	if err != nil {
		return nil, err
	}

	return &StudentTokenClaims{
		StudentID: claims.subjectID,
		TokenType: claims.tokenType,
		TokenID:   claims.tokenID,
		IssuedAt:  claims.issuedAt,
		ExpiresAt: claims.expiresAt,
	}, nil
}

// ValidateStaffToken validates a staff JWT and returns staff-specific claims
func (s *TokenServiceImpl) ValidateStaffToken(token string) (*StaffTokenClaims, error) {
	claims, err := s.parseAndValidate(token, "staff_id")
	if err != nil {
		return nil, err
	}

	return &StaffTokenClaims{
		StaffID:   claims.subjectID,
		TokenType: claims.tokenType,
		TokenID:   claims.tokenID,
		IssuedAt:  claims.issuedAt,
		ExpiresAt: claims.expiresAt,
	}, nil
}

// ValidateServiceToken checks the service-to-service credential in constant
// time. Service tokens are opaque strings, not JWTs.
func (s *TokenServiceImpl) ValidateServiceToken(token string) error {
	if token == "" {
		return ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(token), s.serviceToken) != 1 {
		return ErrTokenInvalid
	}
	return nil
}

type parsedClaims struct {
	subjectID uint
	tokenType string
	tokenID   string
	issuedAt  time.Time
	expiresAt time.Time
}

func (s *TokenServiceImpl) parseAndValidate(token, subjectKey string) (*parsedClaims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secretKey, nil
	})

	if err != nil {
		// Check if the error is due to token expiration
		if strings.Contains(err.Error(), "expired") || strings.Contains(err.Error(), "exp") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	subjectID, ok := claims[subjectKey].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	tokenType, ok := claims["token_type"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	// Check if token has expired
	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	// Check if token has been revoked
	if s.isRevokedID(tokenID) {
		return nil, ErrTokenRevoked
	}

	return &parsedClaims{
		subjectID: uint(subjectID),
		tokenType: tokenType,
		tokenID:   tokenID,
		issuedAt:  time.Unix(int64(issuedAt), 0),
		expiresAt: time.Unix(int64(expiresAt), 0),
	}, nil
}

// RevokeToken adds the token's jti to the in-memory revocation list. A shared
// revocation store (redis) would be needed if this service ever runs more
// than one replica.
func (s *TokenServiceImpl) RevokeToken(token string) error {
	parsedToken, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return ErrTokenInvalid
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return ErrTokenInvalid
	}

	exp := utils.UTCNow().Add(s.refreshTokenTTL)
	if expClaim, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(expClaim), 0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokedTokens[tokenID] = exp

	return nil
}

// IsTokenRevoked checks if a token has been revoked
func (s *TokenServiceImpl) IsTokenRevoked(token string) bool {
	parsedToken, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true // Consider invalid tokens as revoked
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return true
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return true
	}

	return s.isRevokedID(tokenID)
}

func (s *TokenServiceImpl) isRevokedID(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.revokedTokens[tokenID]
	if !ok {
		return false
	}
	// Expired entries are as good as gone
	return utils.UTCNow().Before(exp)
}

// generateToken creates a signed JWT token
func (s *TokenServiceImpl) generateToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(s.signingMethod, claims)

	signedString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	return signedString, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}

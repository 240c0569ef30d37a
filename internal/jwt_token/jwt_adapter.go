package jwttoken

import (
	authmw "escena/pkg/platform/middleware/auth"
)

// middlewareValidator narrows SessionClaims to what RequireAuth needs.
type middlewareValidator struct {
	tokens *JWTService
}

// Validator exposes s through the auth middleware's validator port.
func (s *JWTService) Validator() authmw.JWTValidator {
	return middlewareValidator{tokens: s}
}

func (v middlewareValidator) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	session, err := v.tokens.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: session.UserID, Role: session.Role}, nil
}

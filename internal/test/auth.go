package test

import (
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
)

// TokenParserStub returns preconfigured claims or error.
type TokenParserStub struct {
	ID   int64
	Role pkgAuth.Role
	Err  error
}

// ParseToken implements the parser contract.
func (s TokenParserStub) ParseToken(string) (int64, pkgAuth.Role, error) {
	if s.Err != nil {
		return 0, "", s.Err
	}
	role := s.Role
	if role == "" {
		role = pkgAuth.RoleRider
	}
	return s.ID, role, nil
}

// StrategyStub implements the token strategy with canned behaviour.
type StrategyStub struct {
	Token    string
	ID       int64
	Role     pkgAuth.Role
	IssueErr error
	ParseErr error
}

// IssueToken returns the configured token.
func (s StrategyStub) IssueToken(int64, pkgAuth.Role) (string, error) {
	return s.Token, s.IssueErr
}

// ParseToken returns the configured claims.
func (s StrategyStub) ParseToken(string) (int64, pkgAuth.Role, error) {
	if s.ParseErr != nil {
		return 0, "", s.ParseErr
	}
	return s.ID, s.Role, nil
}

// Name identifies the stub strategy.
func (StrategyStub) Name() string { return "stub" }

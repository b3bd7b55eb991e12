package auth

import "time"

// Role scopes a device token to one of the two dispatch surfaces.
type Role string

const (
	RoleRider      Role = "rider"
	RoleDispatcher Role = "dispatcher"
)

// Strategy issues and verifies device tokens for dispatch actors.
type Strategy interface {
	IssueToken(actorID int64, role Role) (string, error)
	ParseToken(token string) (int64, Role, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}

// Package session provides the authenticated session consumed by tool
// operations: where the upstream API lives, which token to present, and
// what kind of token it is. Token acquisition itself happens outside
// this process; the session is configured at startup.
package session

import "strings"

// AuthType is the kind of token a session carries. Vikunja accepts both
// long-lived API tokens and short-lived JWT sessions; some endpoints
// (user settings) only accept JWT.
type AuthType string

const (
	AuthNone     AuthType = "none"
	AuthAPIToken AuthType = "api-token"
	AuthJWT      AuthType = "jwt"
)

// Session holds the upstream endpoint and credential for one process.
type Session struct {
	APIURL   string
	APIToken string
}

// Provider is the read-only session surface tools depend on.
type Provider interface {
	IsAuthenticated() bool
	AuthType() AuthType
	Session() Session
}

// Static is a Provider fixed at construction time, configured from the
// operator config.
type Static struct {
	session  Session
	authType AuthType
}

// NewStatic builds a static provider. An empty token yields an
// unauthenticated provider; the auth type is detected from the token
// shape when not forced by the caller.
func NewStatic(apiURL, apiToken string, authType AuthType) *Static {
	if apiToken == "" {
		authType = AuthNone
	} else if authType == "" || authType == AuthNone {
		authType = DetectAuthType(apiToken)
	}
	return &Static{
		session:  Session{APIURL: apiURL, APIToken: apiToken},
		authType: authType,
	}
}

func (s *Static) IsAuthenticated() bool {
	return s.session.APIToken != ""
}

func (s *Static) AuthType() AuthType {
	return s.authType
}

func (s *Static) Session() Session {
	return s.session
}

// DetectAuthType guesses the token kind from its shape: Vikunja JWTs
// are three base64url segments starting with "eyJ"; API tokens use the
// tk_ prefix. Anything unrecognized is treated as an API token.
func DetectAuthType(token string) AuthType {
	if strings.HasPrefix(token, "eyJ") && strings.Count(token, ".") == 2 {
		return AuthJWT
	}
	return AuthAPIToken
}

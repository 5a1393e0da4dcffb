package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectAuthType(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  AuthType
	}{
		{"jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", AuthJWT},
		{"api token", "tk_2eef46f40ebab3304919ab2e1e4eba8cedf1db47", AuthAPIToken},
		{"jwt prefix but not three segments", "eyJhbGciOiJIUzI1NiJ9", AuthAPIToken},
		{"opaque", "something-else", AuthAPIToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectAuthType(tt.token))
		})
	}
}

func TestNewStatic(t *testing.T) {
	t.Run("empty token is unauthenticated", func(t *testing.T) {
		p := NewStatic("https://try.vikunja.io/api/v1", "", "")
		assert.False(t, p.IsAuthenticated())
		assert.Equal(t, AuthNone, p.AuthType())
	})

	t.Run("detects type when not forced", func(t *testing.T) {
		p := NewStatic("https://try.vikunja.io/api/v1", "tk_abc", "")
		assert.True(t, p.IsAuthenticated())
		assert.Equal(t, AuthAPIToken, p.AuthType())
	})

	t.Run("forced type wins", func(t *testing.T) {
		p := NewStatic("https://try.vikunja.io/api/v1", "opaque", AuthJWT)
		assert.Equal(t, AuthJWT, p.AuthType())
	})

	t.Run("session carries url and token", func(t *testing.T) {
		p := NewStatic("https://example.com/api/v1", "tk_abc", "")
		s := p.Session()
		assert.Equal(t, "https://example.com/api/v1", s.APIURL)
		assert.Equal(t, "tk_abc", s.APIToken)
	})
}

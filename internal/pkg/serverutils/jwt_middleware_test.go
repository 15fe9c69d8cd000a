package serverutils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestAllowedDomainsFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   []string
	}{
		{
			name:   "claim present",
			claims: jwt.MapClaims{"allowed_domains": []interface{}{"it", "hr"}},
			want:   []string{"it", "hr"},
		},
		{
			name:   "missing claim yields empty list",
			claims: jwt.MapClaims{"user_id": "abc"},
			want:   []string{},
		},
		{
			name:   "wrong claim type yields empty list",
			claims: jwt.MapClaims{"allowed_domains": "it,hr"},
			want:   []string{},
		},
		{
			name:   "non-string entries are dropped",
			claims: jwt.MapClaims{"allowed_domains": []interface{}{"it", 42, "dev"}},
			want:   []string{"it", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedDomainsFromClaims(tt.claims))
		})
	}
}

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "root", path: "/", want: "/auth"},
		{name: "empty", path: "", want: "/auth"},
		{name: "slashes and spaces", path: "/news/some story/", want: "/auth#%2Fnews%2Fsome%20story%2F"},
		{name: "unreserved marks kept", path: "/a!b~c*d'e(f)g-h_i.j", want: "/auth#%2Fa!b~c*d'e(f)g-h_i.j"},
		{name: "reserved characters encoded", path: "/a+b&c=d?e#f", want: "/auth#%2Fa%2Bb%26c%3Dd%3Fe%23f"},
		{name: "utf8 bytes encoded", path: "/café", want: "/auth#%2Fcaf%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, loginRedirect(tt.path))
		})
	}
}

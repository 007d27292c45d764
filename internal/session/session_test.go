package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	token, err := Static{Token: "abc", User: "u1"}.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = Static{Token: "abc"}.UserID()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = Static{Token: "   "}.AuthToken()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_BULK_TOKEN", "tok")
	t.Setenv("TEST_BULK_USER", "")

	p := EnvProvider{TokenVar: "TEST_BULK_TOKEN", UserIDVar: "TEST_BULK_USER"}

	token, err := p.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = p.UserID()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: secret\nuser_id: 42\n"), 0o600))

	p := FileProvider{Path: path}

	token, err := p.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	user, err := p.UserID()
	require.NoError(t, err)
	assert.Equal(t, "42", user)
}

func TestFileProviderMissingFile(t *testing.T) {
	p := FileProvider{Path: filepath.Join(t.TempDir(), "nope.yaml")}

	_, err := p.AuthToken()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileProviderBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := FileProvider{Path: path}.AuthToken()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestChain(t *testing.T) {
	c := Chain{Static{}, Static{Token: "second", User: "u2"}}

	token, err := c.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	_, err = Chain{Static{}}.UserID()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestChainNeverMixesProviders(t *testing.T) {
	tests := []struct {
		name      string
		chain     Chain
		wantToken string
		wantUser  string
	}{
		{
			name:      "token only in first provider",
			chain:     Chain{Static{Token: "file-token"}, Static{Token: "env-token", User: "env-user"}},
			wantToken: "env-token",
			wantUser:  "env-user",
		},
		{
			name:      "user only in first provider",
			chain:     Chain{Static{User: "file-user"}, Static{Token: "env-token", User: "env-user"}},
			wantToken: "env-token",
			wantUser:  "env-user",
		},
		{
			name:      "first complete provider wins",
			chain:     Chain{Static{Token: "file-token", User: "file-user"}, Static{Token: "env-token", User: "env-user"}},
			wantToken: "file-token",
			wantUser:  "file-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.chain.AuthToken()
			require.NoError(t, err)
			userID, err := tt.chain.UserID()
			require.NoError(t, err)

			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantUser, userID)
		})
	}

	_, err := Chain{Static{Token: "t"}, Static{User: "u"}}.AuthToken()
	assert.ErrorIs(t, err, ErrNoSession)
}

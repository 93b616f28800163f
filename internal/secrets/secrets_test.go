// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSAccessKeyID, "  AKIAEXAMPLE  \n")
				writeFile(t, dir, AWSSecretAccessKey, "wJalrXUtnFEMI")
				return dir
			},
			want: map[string]string{
				AWSAccessKeyID:     "AKIAEXAMPLE",
				AWSSecretAccessKey: "wJalrXUtnFEMI",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSSessionToken, "token")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{AWSSessionToken: "token"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, AWSAccessKeyID, "AKIA")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{AWSAccessKeyID: "AKIA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAWSCredentials(t *testing.T) {
	creds := AWSCredentials(map[string]string{
		AWSAccessKeyID:     "AKIA",
		AWSSecretAccessKey: "secret",
		"unrelated":        "x",
	})
	assert.Equal(t, AWS{AccessKeyID: "AKIA", SecretAccessKey: "secret"}, creds)
	assert.True(t, creds.Static())

	assert.False(t, AWSCredentials(map[string]string{AWSAccessKeyID: "AKIA"}).Static())
	assert.False(t, AWS{}.Static())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

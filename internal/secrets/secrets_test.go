// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeformat/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "upstash-url", "  https://eu1.upstash.io  \n")
				writeFile(t, dir, "upstash-token", "tok_xyz789")
				writeFile(t, dir, "contact-email", "user@example.com\n")
				return dir
			},
			want: map[string]string{
				"upstash-url":   "https://eu1.upstash.io",
				"upstash-token": "tok_xyz789",
				"contact-email": "user@example.com",
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
				writeFile(t, dir, "contact-email", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"contact-email": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "upstash-token", "pk_real")
				return dir
			},
			want: map[string]string{
				"upstash-token": "pk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "contact-email", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"contact-email": "ak_123",
			},
		},
		{
			name: "parses dotenv files and normalises names",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "upstash.env", "UPSTASH_REDIS_REST_URL=https://eu1.upstash.io\nUPSTASH_REDIS_REST_TOKEN=\"tok 1\"\n# comment\nCONTACT_EMAIL=ops@example.org\n")
				writeFile(t, dir, "upstash-token", "file-token")
				return dir
			},
			want: map[string]string{
				"upstash-url":   "https://eu1.upstash.io",
				"upstash-token": "tok 1",
				"contact-email": "ops@example.org",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, ContactEmail, "me@example.org")

	badPath := filepath.Join(dir, UpstashToken)
	require.NoError(t, os.WriteFile(badPath, []byte("tok"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ContactEmail: "me@example.org"}, got)
}

func TestKeyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CONTACT_EMAIL", ContactEmail},
		{"UPSTASH_URL", UpstashURL},
		{"UPSTASH_REDIS_REST_URL", UpstashURL},
		{"UPSTASH_REDIS_REST_TOKEN", UpstashToken},
		{" Other_Key ", "other-key"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, keyName(tt.in))
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestApply(t *testing.T) {
	s := map[string]string{
		ContactEmail: "me@example.org",
		UpstashURL:   "https://eu1.upstash.io",
		UpstashToken: "tok",
	}

	t.Run("fills empty fields", func(t *testing.T) {
		var cfg types.Config
		Apply(&cfg, s)
		assert.Equal(t, "me@example.org", cfg.Crossref.ContactEmail)
		assert.Equal(t, "https://eu1.upstash.io", cfg.Cache.UpstashURL)
		assert.Equal(t, "tok", cfg.Cache.UpstashToken)
	})

	t.Run("keeps configured values", func(t *testing.T) {
		var cfg types.Config
		cfg.Crossref.ContactEmail = "set@example.org"
		Apply(&cfg, s)
		assert.Equal(t, "set@example.org", cfg.Crossref.ContactEmail)
		assert.Equal(t, "tok", cfg.Cache.UpstashToken)
	})

	t.Run("nil map", func(t *testing.T) {
		var cfg types.Config
		Apply(&cfg, nil)
		assert.Empty(t, cfg.Crossref.ContactEmail)
	})
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. Files ending in ".env" are parsed as dotenv
// files instead, and their variables are folded into the same map under lowercased,
// dash-separated names (UPSTASH_URL becomes upstash-url).
//
// Supported keys: contact-email, upstash-url, upstash-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Key names understood by Apply.
const (
	ContactEmail = "contact-email"
	UpstashURL   = "upstash-url"
	UpstashToken = "upstash-token"
)

// aliases maps the variable names Upstash hands out to our key names.
var aliases = map[string]string{
	"upstash-redis-rest-url":   UpstashURL,
	"upstash-redis-rest-token": UpstashToken,
}

// Load reads all files in dir and returns a map of key name to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable or malformed files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if strings.HasSuffix(name, ".env") {
			vars, err := godotenv.Read(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not parse secrets file %s: %v\n", name, err)
				continue
			}
			for k, v := range vars {
				if v = strings.TrimSpace(v); v != "" {
					secrets[keyName(k)] = v
				}
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies secrets into the fields of cfg that are still empty. Values
// already set through flags, environment or the config file win.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.Crossref.ContactEmail, ContactEmail)
	fill(&cfg.Cache.UpstashURL, UpstashURL)
	fill(&cfg.Cache.UpstashToken, UpstashToken)
}

func keyName(envVar string) string {
	k := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(envVar), "_", "-"))
	if alias, ok := aliases[k]; ok {
		return alias
	}
	return k
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: aws-access-key-id, aws-secret-access-key, aws-session-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names.
const (
	AWSAccessKeyID     = "aws-access-key-id"
	AWSSecretAccessKey = "aws-secret-access-key"
	AWSSessionToken    = "aws-session-token"
)

// AWS holds static AWS credentials. The zero value means "use the SDK's
// default credential chain".
type AWS struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Static reports whether both the key id and the secret are present.
func (a AWS) Static() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != ""
}

// AWSCredentials picks the AWS key files out of a loaded secrets map.
func AWSCredentials(secrets map[string]string) AWS {
	return AWS{
		AccessKeyID:     secrets[AWSAccessKeyID],
		SecretAccessKey: secrets[AWSSecretAccessKey],
		SessionToken:    secrets[AWSSessionToken],
	}
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
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
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

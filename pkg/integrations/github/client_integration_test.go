//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFetch_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set, skipping integration test")
	}

	client := NewClient(token, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name    string
		owner   string
		repo    string
		wantErr bool
	}{
		{"softwarepub/hermes", "softwarepub", "hermes", false},
		{"nonexistent", "nonexistent-owner-12345", "nonexistent-repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := client.Fetch(ctx, tt.owner, tt.repo, true)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fetch(%q, %q) error = %v, wantErr %v", tt.owner, tt.repo, err, tt.wantErr)
				return
			}
			if !tt.wantErr && repo.HTMLURL == "" {
				t.Error("HTMLURL should not be empty")
			}
		})
	}
}

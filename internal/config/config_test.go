// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"strings"
	"testing"
)

const validSecret = "Test-Secret-Key-32-Bytes-Long!!!"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OBLOG_SECRET_KEY", validSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q, want localhost:8080", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env is not development")
	}
	if cfg.ConfirmTokenTTL != 3600 || cfg.AuthTokenTTL != 3600 {
		t.Errorf("token TTLs = %d/%d, want 3600/3600", cfg.ConfirmTokenTTL, cfg.AuthTokenTTL)
	}
	if cfg.PostsPerPage != 20 {
		t.Errorf("PostsPerPage = %d, want 20", cfg.PostsPerPage)
	}
	if cfg.DoSeed {
		t.Error("DoSeed defaults to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OBLOG_SECRET_KEY", validSecret)
	t.Setenv("OBLOG_SERVER_HOST", "0.0.0.0")
	t.Setenv("OBLOG_SERVER_PORT", "9000")
	t.Setenv("OBLOG_ENV", "production")
	t.Setenv("OBLOG_ADMIN_EMAIL", "root@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddr() != "0.0.0.0:9000" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("production env reports development")
	}
	if cfg.AdminEmail != "root@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("OBLOG_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an empty secret key")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("OBLOG_SECRET_KEY", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load accepted a short secret key")
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("error = %v, want length complaint", err)
	}
}

func TestLoadRejectsKnownWeakSecret(t *testing.T) {
	t.Setenv("OBLOG_SECRET_KEY", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a known default secret")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"Abc123!@#", true},
		{"abcdefghabcdefgh", false},
		{"abcDEFghiJKL", false},
		{"abc123def456", false},
		{"Abc123def456", true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}

package main

import (
	"testing"

	"stocksight/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short", OwnerEmail: "owner@example.com", OwnerPassword: "owner-password-1"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}

	err = validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", OwnerEmail: "owner@example.com", OwnerPassword: "short"})
	if err == nil {
		t.Fatalf("expected short owner password to be rejected")
	}

	err = validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", OwnerPassword: "owner-password-1"})
	if err == nil {
		t.Fatalf("expected missing owner email to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		OwnerEmail:    "owner@example.com",
		OwnerPassword: "owner-password-1",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

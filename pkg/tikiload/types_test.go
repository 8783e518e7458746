package tikiload_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

func TestIngestConfigValidate(t *testing.T) {
	valid := tikiload.IngestConfig{
		DataPath:         "./data",
		ConnectionString: "host=localhost dbname=catalog",
		BatchSize:        500,
		Timeout:          time.Minute,
	}

	t.Run("valid config", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Errorf("expected valid config, got: %v", err)
		}
	})

	t.Run("missing data path", func(t *testing.T) {
		c := valid
		c.DataPath = ""
		if err := c.Validate(); !errors.Is(err, tikiload.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got: %v", err)
		}
	})

	t.Run("missing connection string", func(t *testing.T) {
		c := valid
		c.ConnectionString = ""
		if err := c.Validate(); !errors.Is(err, tikiload.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got: %v", err)
		}
	})

	t.Run("negative batch size", func(t *testing.T) {
		c := valid
		c.BatchSize = -1
		if err := c.Validate(); !errors.Is(err, tikiload.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got: %v", err)
		}
	})

	t.Run("zero batch size is allowed", func(t *testing.T) {
		c := valid
		c.BatchSize = 0
		if err := c.Validate(); err != nil {
			t.Errorf("zero batch size should mean default, got: %v", err)
		}
	})

	t.Run("multiple failures reported together", func(t *testing.T) {
		c := tikiload.IngestConfig{BatchSize: -1}
		err := c.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		msg := err.Error()
		for _, want := range []string{"DataPath", "ConnectionString", "batch size"} {
			if !strings.Contains(msg, want) {
				t.Errorf("joined error %q missing %q", msg, want)
			}
		}
	})
}

func TestAuthMethodString(t *testing.T) {
	tests := []struct {
		method tikiload.AuthMethod
		want   string
	}{
		{tikiload.AuthMethodStandard, "Standard"},
		{tikiload.AuthMethodAWSIAM, "AWS IAM"},
		{tikiload.AuthMethodGoogleIAM, "Google IAM"},
		{tikiload.AuthMethodAzureEntraID, "Azure Entra ID"},
		{tikiload.AuthMethod(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("AuthMethod(%d).String() = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestAuthMethodIsValid(t *testing.T) {
	if !tikiload.AuthMethodStandard.IsValid() {
		t.Error("Standard should be valid")
	}
	if !tikiload.AuthMethodAzureEntraID.IsValid() {
		t.Error("AzureEntraID should be valid")
	}
	if tikiload.AuthMethod(99).IsValid() {
		t.Error("out-of-range method should be invalid")
	}
	if tikiload.AuthMethod(-1).IsValid() {
		t.Error("negative method should be invalid")
	}
}

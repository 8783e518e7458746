package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAWSIAMTokenProvider(t *testing.T) {
	t.Run("builds host:port endpoint", func(t *testing.T) {
		p, err := NewAWSIAMTokenProvider("db.us-east-1.rds.amazonaws.com", 5432, "us-east-1", "loader")
		require.NoError(t, err)
		assert.Contains(t, p.String(), "db.us-east-1.rds.amazonaws.com:5432")
		assert.Contains(t, p.String(), "us-east-1")
	})

	t.Run("missing host", func(t *testing.T) {
		_, err := NewAWSIAMTokenProvider("", 5432, "us-east-1", "loader")
		assert.Error(t, err)
	})

	t.Run("missing region names the flag", func(t *testing.T) {
		_, err := NewAWSIAMTokenProvider("db.example.com", 5432, "", "loader")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--aws-region")
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := NewAWSIAMTokenProvider("db.example.com", 5432, "us-east-1", "")
		assert.Error(t, err)
	})
}

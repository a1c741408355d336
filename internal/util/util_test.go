package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required"`
	Days  int    `json:"maxBorrowDays" validate:"min=1,max=90"`
}

func TestNewValidator_UsesJSONNames(t *testing.T) {
	t.Parallel()

	err := NewValidator().Struct(sample{Days: 91})
	require.Error(t, err)

	msg := DescribeValidationError(err)
	assert.Contains(t, msg, "title is required")
	assert.Contains(t, msg, "maxBorrowDays must satisfy max=90")
}

func TestNewValidator_Passes(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewValidator().Struct(sample{Title: "Dune", Days: 14}))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "under one minute", duration: 45 * time.Second, expected: "45s"},
		{name: "rounded second to minute", duration: 59*time.Second + 500*time.Millisecond, expected: "1m0s"},
		{name: "minutes and seconds", duration: 2*time.Minute + 30*time.Second, expected: "2m30s"},
		{name: "hours and minutes", duration: time.Hour + 30*time.Minute, expected: "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatDuration(tt.duration); got != tt.expected {
				t.Fatalf("FormatDuration(%s) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}

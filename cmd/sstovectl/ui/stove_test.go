package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/sstove-api/internal/stove"
)

func TestValidateSerial(t *testing.T) {
	assert.NoError(t, ValidateSerial("ABC123"))
	assert.Error(t, ValidateSerial("   "))
	assert.Error(t, ValidateSerial(strings.Repeat("x", 33)))
	assert.NoError(t, ValidateSerial(strings.Repeat("x", 32)))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName(""))
	assert.Error(t, ValidateName(strings.Repeat("n", 51)))
}

func TestPrintStoves(t *testing.T) {
	var buf bytes.Buffer
	PrintStoves(&buf, nil)
	assert.Contains(t, buf.String(), "no stoves provisioned")

	buf.Reset()
	claimed := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	PrintStoves(&buf, []stove.Stove{
		{ID: 1, SerialID: "ABC123", Name: "Kitchen"},
		{ID: 2, SerialID: "XYZ789", ClaimedAt: &claimed},
	})
	out := buf.String()
	assert.Contains(t, out, "ABC123")
	assert.Contains(t, out, "Kitchen")
	assert.Contains(t, out, "2026-01-02 03:04")
}

package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Alice", "Alice"},
		{"spaces and punctuation", "Dr. Bob-Smith (work)", "DrBobSmithwork"},
		{"accents kept", "José", "José"},
		{"digits kept", "+1 555 0100", "15550100"},
		{"empty", "", Unnamed},
		{"only symbols", "!!!", Unnamed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeSpellsOutEmoji(t *testing.T) {
	got := Sanitize("🍕")
	assert.NotEqual(t, Unnamed, got)
	assert.NotContains(t, got, "🍕")
	assert.Equal(t, got, Sanitize("🍕"), "emoji spelling must be deterministic")
}

func TestAssignNamesFallbacks(t *testing.T) {
	contacts := []*Contact{
		{ID: "1", DisplayName: "Alice"},
		{ID: "2", Phone: "+15550100"},
		{ID: "3"},
	}
	AssignNames(contacts)
	assert.Equal(t, "Alice", contacts[0].Name)
	assert.Equal(t, "15550100", contacts[1].Name)
	assert.Equal(t, Unnamed, contacts[2].Name)
}

func TestAssignNamesCollisions(t *testing.T) {
	contacts := []*Contact{
		{ID: "1", DisplayName: "Bob"},
		{ID: "2", DisplayName: "Bob!"},
		{ID: "3", DisplayName: "Bob2"},
		{ID: "4", DisplayName: "B.o.b"},
		{ID: "5"},
		{ID: "6", DisplayName: "???"},
	}
	AssignNames(contacts)

	assert.Equal(t, "Bob", contacts[0].Name, "first seen keeps the bare name")
	assert.Equal(t, "Bob2", contacts[1].Name)
	assert.Equal(t, "Bob22", contacts[2].Name)
	assert.Equal(t, "Bob3", contacts[3].Name)
	assert.Equal(t, Unnamed, contacts[4].Name)
	assert.Equal(t, Unnamed+"2", contacts[5].Name)
}

func TestAssignNamesUniqueness(t *testing.T) {
	inputs := []string{"", "", "a", "a", "a2", "A", "a 2", "😀", "😀", "x", "x!", "x2", "x3", ""}
	var contacts []*Contact
	for i, in := range inputs {
		contacts = append(contacts, &Contact{ID: fmt.Sprint(i), DisplayName: in})
	}
	AssignNames(contacts)

	seen := make(map[string]bool)
	for _, c := range contacts {
		require.NotEmpty(t, c.Name)
		require.False(t, seen[c.Name], "duplicate name %q", c.Name)
		seen[c.Name] = true
	}
}

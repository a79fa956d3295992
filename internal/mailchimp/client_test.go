package mailchimp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberIDNormalizesEmail(t *testing.T) {
	// Mailchimp hashes the lowercased address; case and padding must not
	// produce distinct members.
	want := MemberID("ada@example.org")
	assert.Equal(t, want, MemberID("ADA@Example.org"))
	assert.Equal(t, want, MemberID("  ada@example.org  "))
	assert.Len(t, want, 32)
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		full  string
		first string
		last  string
	}{
		{"Ada Vance", "Ada", "Vance"},
		{"Ada", "Ada", ""},
		{"Ada Maria de la Cruz", "Ada", "Maria de la Cruz"},
		{"  Ada   Vance  ", "Ada", "Vance"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.full)
		assert.Equal(t, tc.first, first, "input %q", tc.full)
		assert.Equal(t, tc.last, last, "input %q", tc.full)
	}
}

func TestSubscriptionStatus(t *testing.T) {
	assert.Equal(t, "subscribed", subscriptionStatus(true))
	assert.Equal(t, "transactional", subscriptionStatus(false))
}

func TestDisabledClient(t *testing.T) {
	assert.False(t, New("", "us21", "abc123").Enabled())
	assert.False(t, New("key", "", "abc123").Enabled())
	assert.False(t, New("key", "us21", "").Enabled())
	assert.True(t, New("key", "us21", "abc123").Enabled())
}

package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Link
	}{
		{raw: "smallgroups://group/42", want: Link{Type: TypeGroup, ID: "42"}},
		{raw: "smallgroups://event/abc-1", want: Link{Type: TypeEvent, ID: "abc-1"}},
		{raw: "smallgroups://referral/r9?source=sms", want: Link{Type: TypeReferral, ID: "r9", Params: map[string]string{"source": "sms"}}},
		{raw: "smallgroups://auth/reset-password?token=t", want: Link{Type: TypeAuth, ID: "reset-password", Params: map[string]string{"token": "t"}}},
		{raw: "smallgroups://notifications", want: Link{Type: TypeNotifications}},
		{raw: "smallgroups:///group/7", want: Link{Type: TypeGroup, ID: "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Parse("smallgroups", tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://group/42",
		"smallgroups://",
		"smallgroups://profile/1",
		"smallgroups://group",
		"smallgroups://group/1/members",
		"smallgroups://notifications/5",
	} {
		_, ok := Parse("smallgroups", raw)
		assert.False(t, ok, raw)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	raw := Build("smallgroups", TypeGroup, "g-1")
	assert.Equal(t, "smallgroups://group/g-1", raw)

	link, ok := Parse("smallgroups", raw)
	require.True(t, ok)
	assert.Equal(t, "g-1", link.ID)

	assert.Equal(t, "smallgroups://notifications", Build("smallgroups", TypeNotifications, ""))
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter("smallgroups")
	var got Link
	r.Handle(TypeEvent, func(l Link) { got = l })

	require.True(t, r.Dispatch("smallgroups://event/e1"))
	assert.Equal(t, "e1", got.ID)

	assert.False(t, r.Dispatch("smallgroups://group/g1"))
	assert.False(t, r.Dispatch("smallgroups://unknown/1"))
}

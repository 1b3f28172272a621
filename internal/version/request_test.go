package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		input string
		want  Request
	}{
		{"ripgrep", Request{Name: "ripgrep", Spec: Any()}},
		{"ripgrep@*", Request{Name: "ripgrep", Spec: Any()}},
		{"ripgrep@1.0.0", Request{Name: "ripgrep", Spec: Exact("1.0.0")}},
		{"ripgrep@~1.0", Request{Name: "ripgrep", Spec: Partial("1.0")}},
		{"a@", Request{Name: "a", Spec: Exact("")}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, ParseRequest(tt.input))
		})
	}
}

func TestParseRequests(t *testing.T) {
	got := ParseRequests([]string{"a", "b@1.0.0"})
	require.Equal(t, []Request{
		{Name: "a", Spec: Any()},
		{Name: "b", Spec: Exact("1.0.0")},
	}, got)
}

func TestRequest_String(t *testing.T) {
	require.Equal(t, "a@*", Request{Name: "a", Spec: Any()}.String())
	require.Equal(t, "a@~1", Request{Name: "a", Spec: Partial("1")}.String())
	require.Equal(t, "a@1.0.0", Request{Name: "a", Spec: Exact("1.0.0")}.String())
}

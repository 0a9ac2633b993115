package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"line comment", `{
			// a comment
			"a": 1
		}`},
		{"block comment", `{
			/* block
			   comment */
			"a": 1
		}`},
		{"comment-like text inside string survives", `{"a": "http://example.com // not a comment"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := StripComments([]byte(tc.in))
			var v map[string]any
			require.NoError(t, json.Unmarshal(out, &v))
		})
	}
}

func TestStripComments_PreservesStringWithEscapedQuote(t *testing.T) {
	in := `{"a": "she said \"// not a comment\""}`
	out := StripComments([]byte(in))
	var v map[string]string
	require.NoError(t, json.Unmarshal(out, &v))
	require.Equal(t, `she said "// not a comment"`, v["a"])
}

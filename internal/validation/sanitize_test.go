package validation

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/casegen/internal/parser"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "commas in text become semicolons",
			input: "Test Case,\"Enter name, email\",,,,COS 1\n",
			want:  "Test Case,Enter name; email,,,,COS 1\n",
		},
		{
			name:  "numeric cells untouched",
			input: "a,-12.5,.5,3\n",
			want:  "a,-12.5,.5,3\n",
		},
		{
			name:  "quotes and newlines stay quoted",
			input: "\"say \"\"hi\"\"\",\"two\nlines\"\n",
			want:  "\"say \"\"hi\"\"\",\"two\nlines\"\n",
		},
		{
			name:  "crlf input written with lf",
			input: "a,b\r\nc,d\r\n",
			want:  "a,b\nc,d\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_UnparseableReturnedUnchanged(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Work Item Type,Title,Test Step,Step Action,Step Expected,COS Reference\nTest Case,\"a, b, c\",,,,COS 1\n,,1,\"Type \"\"x, y\"\"\",Shown,\n",
		"\"\"\n1,2\n",
		"x,\"multi\r\nline, text\"\n",
		"\"\r\r\na...b\r",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}

func TestSanitize_IdempotentRandomInput(t *testing.T) {
	const alphabet = "ab ,\"\n\r1.-;"
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 20000; i++ {
		var sb strings.Builder
		for n := rng.IntN(16); n > 0; n-- {
			sb.WriteByte(alphabet[rng.IntN(len(alphabet))])
		}
		in := sb.String()

		once, _, ok := SanitizeWithStats(in)
		if !ok {
			continue
		}
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSanitize_PreservesCellsExceptCommas(t *testing.T) {
	input := "Test Case,\"Login, then logout\",,,,COS 1\n,,1,Click \"OK\",Dialog closes,\n"

	out, stats, ok := SanitizeWithStats(input)
	require.True(t, ok)
	assert.Equal(t, 1, stats.CellsChanged)
	assert.Equal(t, 2, stats.Rows)

	before, err := parser.ReadRecords(input)
	require.NoError(t, err)
	after, err := parser.ReadRecords(out)
	require.NoError(t, err)

	require.Equal(t, len(before), len(after))
	for i := range before {
		require.Equal(t, len(before[i]), len(after[i]))
		for j := range before[i] {
			assert.Equal(t, before[i][j], replaceCommas(after[i][j], before[i][j]))
		}
	}
}

// replaceCommas restores commas at the positions where the original had them.
func replaceCommas(sanitized, original string) string {
	out := []byte(sanitized)
	for i := 0; i < len(original) && i < len(out); i++ {
		if original[i] == ',' && out[i] == ';' {
			out[i] = ','
		}
	}
	return string(out)
}

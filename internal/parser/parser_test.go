package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][]string
		wantErr error
	}{
		{
			name:  "plain rows",
			input: "a,b,c\n1,2,3\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "quoted delimiter and newline",
			input: "a,\"b, c\",\"line1\nline2\"\n",
			want:  [][]string{{"a", "b, c", "line1\nline2"}},
		},
		{
			name:  "crlf and blank lines",
			input: "a,b\r\n\r\nc,d\r\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "ragged rows allowed",
			input: "a,b,c\n1,2\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2"}},
		},
		{
			name:  "bare quote inside field",
			input: "a,say \"hi\" now\n",
			want:  [][]string{{"a", "say \"hi\" now"}},
		},
		{
			name:  "byte order mark",
			input: "\ufeffa,b\n",
			want:  [][]string{{"a", "b"}},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRecords(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRecords_MinimalQuoting(t *testing.T) {
	records := [][]string{
		{"plain", " leading space", "has,comma", `say "hi"`, "two\nlines", ""},
		{""},
	}
	want := "plain, leading space,\"has,comma\",\"say \"\"hi\"\"\",\"two\nlines\",\n\"\"\n"
	assert.Equal(t, want, WriteRecords(records))
}

func TestWriteRecords_CollapsesCRLF(t *testing.T) {
	out := WriteRecords([][]string{{"a\r\r\nb\r", "c"}})
	assert.Equal(t, "\"a\nb\r\",c\n", out)

	records, err := ReadRecords(out)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a\nb\r", "c"}}, records)
}

func TestWriteRecords_RoundTrip(t *testing.T) {
	records := [][]string{
		{"Work Item Type", "Title", "Test Step", "Step Action", "Step Expected", "COS Reference"},
		{"Test Case", `Quote "x"`, "", "", "", "COS 1"},
		{"", "", "1", "Enter a, b", "Multi\nline", ""},
	}
	got, err := ReadRecords(WriteRecords(records))
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

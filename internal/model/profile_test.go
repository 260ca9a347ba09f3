package model

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProfile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Profile
		wantErr string
	}{
		{
			name:  "two columns with comments",
			input: "# r  mu\n0 1.5\n\n1 2.5  # inline\n",
			want:  &Profile{X: []float64{0, 1}, Y: []float64{1.5, 2.5}},
		},
		{
			name:  "three columns",
			input: "0 1 0.1\n1 2 0.2\n",
			want:  &Profile{X: []float64{0, 1}, Y: []float64{1, 2}, Err: []float64{0.1, 0.2}},
		},
		{
			name:    "mixed columns",
			input:   "0 1 0.1\n1 2\n",
			wantErr: "line 2",
		},
		{
			name:    "bad number",
			input:   "0 1\n1 abc\n",
			wantErr: `invalid number "abc"`,
		},
		{
			name:    "too many columns",
			input:   "0 1 2 3\n",
			wantErr: "expected 2 or 3 columns",
		},
		{
			name:    "empty",
			input:   "# nothing\n",
			wantErr: "no data rows",
		},
		{
			name:    "non-positive error",
			input:   "0 1 0\n",
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ReadProfile(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestReadProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.dat")
	require.NoError(t, os.WriteFile(path, []byte("1 2\n3 4\n"), 0644))

	p, err := ReadProfileFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	_, err = ReadProfileFile(filepath.Join(t.TempDir(), "missing.dat"))
	assert.Error(t, err)
}

func TestProfileCrop(t *testing.T) {
	p := &Profile{
		X:   []float64{0, 1, 2, 3},
		Y:   []float64{10, 11, 12, 13},
		Err: []float64{1, 1, 2, 2},
	}
	c := p.Crop(1, 2)
	assert.Equal(t, []float64{1, 2}, c.X)
	assert.Equal(t, []float64{11, 12}, c.Y)
	assert.Equal(t, []float64{1, 2}, c.Err)
}

func TestWriteProfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProfile(&buf, []float64{0, 0.5}, []float64{1, 2.25}))
	assert.Equal(t, "0\t1\n0.5\t2.25\n", buf.String())

	back, err := ReadProfile(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.25}, back.Y[1:])
}

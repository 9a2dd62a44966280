package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]Override
		want      string
		wantErr   bool
	}{
		{
			name:      "empty map encodes empty",
			overrides: map[string]Override{},
			want:      "",
		},
		{
			name:      "simple override",
			overrides: map[string]Override{"exp_a": {Variant: 1}},
			want:      "exp_a:1",
		},
		{
			name: "sorted name order with env and id",
			overrides: map[string]Override{
				"zeta":  {Variant: 2},
				"alpha": {Variant: 1, Env: 3, ExperimentID: 42},
			},
			want: "alpha:1.3.42,zeta:2",
		},
		{
			name:      "empty name is rejected",
			overrides: map[string]Override{"": {Variant: 1}},
			wantErr:   true,
		},
		{
			name:      "reserved characters in name are rejected",
			overrides: map[string]Override{"a:b": {Variant: 1}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.overrides)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  map[string]Override
	}{
		{
			name:  "empty value",
			value: "",
			want:  map[string]Override{},
		},
		{
			name:  "simple entries",
			value: "exp_a:1,exp_b:0",
			want: map[string]Override{
				"exp_a": {Variant: 1},
				"exp_b": {Variant: 0},
			},
		},
		{
			name:  "entry with env and id",
			value: "exp:2.1.99",
			want: map[string]Override{
				"exp": {Variant: 2, Env: 1, ExperimentID: 99},
			},
		},
		{
			name:  "malformed entries are skipped",
			value: "good:1,bad,:7,alsobad:x,trailing:2.z.3",
			want: map[string]Override{
				"good":     {Variant: 1},
				"trailing": {Variant: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.value))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := map[string]Override{
		"button_color": {Variant: 1},
		"headline":     {Variant: 2, Env: 1, ExperimentID: 7},
	}
	encoded, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, in, Decode(encoded))
}

package decimals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "40000", want: "40000"},
		{name: "fractional", input: "0.00000001", want: "0.00000001"},
		{name: "negative", input: "-12.5", want: "-12.5"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-number", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDiv(t *testing.T) {
	a := decimal.NewFromInt(1)
	b := decimal.NewFromInt(3)

	got, err := Div(a, b)
	require.NoError(t, err)
	// Division precision must carry at least 20 digits.
	assert.Equal(t, "0.33333333333333333333", got.String())

	_, err = Div(a, decimal.Zero)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestStorageRoundsHalfUp(t *testing.T) {
	d, err := Parse("0.123456785")
	require.NoError(t, err)
	assert.Equal(t, "0.12345679", Storage(d).String())

	d, err = Parse("0.123456784")
	require.NoError(t, err)
	assert.Equal(t, "0.12345678", Storage(d).String())
}

func TestDisplayRoundsToCents(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{input: "41000", want: 41000},
		{input: "0.005", want: 0.01},
		{input: "0.004", want: 0},
		{input: "-2.675", want: -2.68},
	}
	for _, tt := range tests {
		d, err := Parse(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Display(d), "input %s", tt.input)
	}
}

func TestFromFloat(t *testing.T) {
	// 0.1 must survive the float conversion exactly, no binary drift.
	assert.Equal(t, "0.1", FromFloat(0.1).String())
}

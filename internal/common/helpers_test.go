package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStroopsToLumens(t *testing.T) {
	require := require.New(t)

	require.Equal("10.0000000", StroopsToLumens(100000000))
	require.Equal("0.0000001", StroopsToLumens(1))
	require.Equal("0.0000000", StroopsToLumens(0))
	require.Equal("1.5000000", StroopsToLumens(15000000))
	require.Equal("922337203685.4775807", StroopsToLumens(9223372036854775807))

	require.Equal("-0.0000001", StroopsToLumens(-1))
	require.Equal("-10.0000000", StroopsToLumens(-100000000))
	require.Equal("-0.5000000", StroopsToLumens(-5000000))
}

func TestLumensToStroops(t *testing.T) {
	require := require.New(t)

	cases := map[string]int64{
		"10.0000000": 100000000,
		"10":         100000000,
		"10.5":       105000000,
		"0.0000001":  1,
		".5":         5000000,
		" 1.5 ":      15000000,
	}
	for in, want := range cases {
		got, err := LumensToStroops(in)
		require.NoError(err, "input %q", in)
		require.Equal(want, got, "input %q", in)
	}
}

func TestLumensToStroopsRejects(t *testing.T) {
	require := require.New(t)

	for _, in := range []string{
		"",
		"-1",
		"-0.5",
		"0.00000001", // more precision than the ledger has
		"1.",
		"1.2.3",
		"abc",
	} {
		_, err := LumensToStroops(in)
		require.Error(err, "input %q", in)
	}
}

func TestValidatePaymentAmount(t *testing.T) {
	require := require.New(t)

	require.NoError(ValidatePaymentAmount("10.0000000"))
	require.NoError(ValidatePaymentAmount("0.0000001"))

	require.Error(ValidatePaymentAmount("0"))
	require.Error(ValidatePaymentAmount("0.0000000"))
	require.Error(ValidatePaymentAmount("-5"))
	require.Error(ValidatePaymentAmount("ten"))
}

func TestCompareAmounts(t *testing.T) {
	require := require.New(t)

	got, err := CompareAmounts("1.5", "1.5000000")
	require.NoError(err)
	require.Equal(0, got)

	got, err = CompareAmounts("1.4999999", "1.5")
	require.NoError(err)
	require.Equal(-1, got)

	got, err = CompareAmounts("2", "1.9999999")
	require.NoError(err)
	require.Equal(1, got)

	_, err = CompareAmounts("x", "1")
	require.Error(err)
}

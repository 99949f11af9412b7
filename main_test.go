package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"service", "--state", "PR"}, "01 UPS Next Day Air\n"},
		{[]string{"service", "--state", "HI", "--country", "US"}, "02 UPS 2nd Day Air\n"},
		{[]string{"service", "--state", "ON", "--country", "CA"}, "11 UPS Standard\n"},
		{[]string{"service", "--state", "TX", "--method", "THREE_DAY_SELECT"}, "12 UPS 3 Day Select\n"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(tt.args)

		require.NoError(t, rootCmd.Execute(), tt.args)
		assert.Equal(t, tt.want, out.String(), tt.args)

		// Flags persist on the shared command between runs.
		for _, name := range []string{"state", "country", "method"} {
			require.NoError(t, serviceCmd.Flags().Set(name, ""))
		}
	}
}

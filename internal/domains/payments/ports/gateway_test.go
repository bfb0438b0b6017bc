package ports

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "local with leading zero", raw: "0712345678", want: "255712345678"},
		{name: "local with spaces", raw: "07 1234 5678", want: "255712345678"},
		{name: "international with plus", raw: "+255712345678", want: "255712345678"},
		{name: "international bare", raw: "255612345678", want: "255612345678"},
		{name: "landline prefix", raw: "0212345678", wantErr: true},
		{name: "too short", raw: "071234567", wantErr: true},
		{name: "too long", raw: "25571234567890", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "letters", raw: "not-a-number", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPhoneNumber)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

package source

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"spez", "spez"},
		{"  Spez  ", "Spez"},
		{"u/spez", "spez"},
		{"/u/spez/", "spez"},
		{"/user/some_user-1", "some_user-1"},
		{"https://www.reddit.com/user/kojied/", "kojied"},
		{"https://old.reddit.com/u/Hungry-Move-6603/comments/", "Hungry-Move-6603"},
		{"reddit.com/user/spez", "spez"},
		{"https://www.reddit.com/user/spez?sort=new", "spez"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUsername(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUsername_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"ab",
		"this_name_is_way_too_long_for_reddit",
		"bad name",
		"https://www.reddit.com/r/golang",
		"https://www.reddit.com/",
	} {
		_, err := ParseUsername(input)
		assert.True(t, errors.Is(err, ErrInvalidUsername), "input %q: %v", input, err)
	}
}

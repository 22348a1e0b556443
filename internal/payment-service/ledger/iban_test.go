package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIBAN(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"TR330006100519786457841326", true},
		{"TR33 0006 1005 1978 6457 8413 26", true},
		{"DE89370400440532013000", true},
		{"GB82WEST", true},
		{"tr330006100519786457841326", false},
		{"TR3X0006100519786457841326", false},
		{"TR33ABC", false},
		{"TR33" + "0123456789012345678901234567890", false},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ValidIBAN(c.in), c.in)
	}
}

func TestNormalizeIBAN(t *testing.T) {
	assert.Equal(t, "TR330006100519786457841326", NormalizeIBAN(" TR33 0006 1005\t1978 6457 8413 26 "))
}

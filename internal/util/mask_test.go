package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	cases := map[string]string{
		"":                                        "",
		"postgres://user:secret@db:5432/coches":   "postgres://user:xxxxx@db:5432/coches",
		"postgres://user@db/coches":               "postgres://user@db/coches",
		"host=db user=u password=secret dbname=c": "host=db user=u password=xxxxx dbname=c",
		":memory:":                                ":memory:",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskDSN(in), in)
	}
}

package groq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := New(func(o *Options) { o.APIKey = "test" })
	assert.Equal(t, "groq", a.Name())
}

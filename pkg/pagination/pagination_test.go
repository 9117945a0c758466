package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Normalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, PerPage: 20}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 2, PerPage: 100}, Params{Page: 2, PerPage: 1000}.Normalize())
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PerPage: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, PerPage: 20}.Offset())
}

func TestParams_Window(t *testing.T) {
	start, end := Params{Page: 2, PerPage: 10}.Window(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = Params{Page: 3, PerPage: 10}.Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = Params{Page: 9, PerPage: 10}.Window(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}

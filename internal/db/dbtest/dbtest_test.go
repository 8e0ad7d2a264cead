package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSearchPath(t *testing.T) {
	assert.Equal(t, "host=db user=u search_path=s1", withSearchPath("host=db user=u", "s1"))
	assert.Equal(t, "postgres://u@db/shop?search_path=s1", withSearchPath("postgres://u@db/shop", "s1"))
	assert.Equal(t, "postgres://u@db/shop?sslmode=disable&search_path=s1", withSearchPath("postgres://u@db/shop?sslmode=disable", "s1"))
}

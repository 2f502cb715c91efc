package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "enrollment:wizard:session:t1:abc", Key("wizard", "session", "t1", "abc"))
	assert.Equal(t, "enrollment:address:01001000", Key("address", " ", "01001000"))
	assert.Equal(t, "enrollment", Key())
}

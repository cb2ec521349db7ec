package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryLog(t *testing.T) {
	h := NewHistoryLog(3)
	assert.Empty(t, h.Entries())

	for _, s := range []string{"a", "b", "c", "d"} {
		h.Add(s)
	}
	assert.Equal(t, []string{"d", "c", "b"}, h.Entries())
}

func TestHistoryLog_DefaultCapacity(t *testing.T) {
	h := NewHistoryLog(0)
	for i := 0; i < DefaultHistoryCapacity+10; i++ {
		h.Add("x")
	}
	assert.Len(t, h.Entries(), DefaultHistoryCapacity)
}

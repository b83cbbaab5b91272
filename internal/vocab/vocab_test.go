package vocab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/midas-extract/internal/vocab"
)

func TestIsCounty(t *testing.T) {
	assert.True(t, vocab.IsCounty("devon"))
	assert.True(t, vocab.IsCounty("DUMFRIES & GALLOWAY"))
	assert.True(t, vocab.IsCounty(" Isle of Wight "))
	assert.False(t, vocab.IsCounty("atlantis"))
}

func TestIsDataType(t *testing.T) {
	assert.True(t, vocab.IsDataType("rain"))
	assert.True(t, vocab.IsDataType("WMO"))
	assert.False(t, vocab.IsDataType("snow"))
}

func TestUnknown(t *testing.T) {
	got := vocab.Unknown([]string{"devon", "narnia", "kent", "mordor"}, vocab.IsCounty)
	assert.Equal(t, []string{"narnia", "mordor"}, got)
}

func TestAccessorsReturnCopies(t *testing.T) {
	types := vocab.DataTypes()
	types[0] = "changed"
	assert.Equal(t, "CLBD", vocab.DataTypes()[0])
	assert.Len(t, vocab.TableNames(), 9)
	assert.Contains(t, vocab.Counties(), "YORKSHIRE")
}

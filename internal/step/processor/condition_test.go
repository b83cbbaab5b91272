package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/step/processor"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

func TestParseConditions(t *testing.T) {
	conditions, err := processor.ParseConditions("MAX_AIR_TEMP=range=10:20; src_id=exact=214;;met_domain_name=pattern=^DLY")
	require.NoError(t, err)
	require.Len(t, conditions, 3)

	assert.Equal(t, "max_air_temp", conditions[0].Column)
	assert.Equal(t, processor.Range, conditions[0].Kind)
	assert.True(t, conditions[0].Matches("10"))
	assert.True(t, conditions[0].Matches(" 20.0 "))
	assert.False(t, conditions[0].Matches("20.1"))
	assert.False(t, conditions[0].Matches(""))

	assert.True(t, conditions[1].Matches("214"))
	assert.False(t, conditions[1].Matches("2140"))

	assert.True(t, conditions[2].Matches("DLY3208"))
	assert.False(t, conditions[2].Matches("SYNOP"))
}

func TestCondition_Thresholds(t *testing.T) {
	gt, err := processor.NewCondition("x", processor.GreaterThan, "5")
	require.NoError(t, err)
	assert.True(t, gt.Matches("5.5"))
	assert.False(t, gt.Matches("5"))
	assert.False(t, gt.Matches("n/a"))

	lt, err := processor.NewCondition("x", processor.LessThan, "-1")
	require.NoError(t, err)
	assert.True(t, lt.Matches("-2"))
	assert.False(t, lt.Matches("-1"))
}

func TestParseConditions_Invalid(t *testing.T) {
	for _, spec := range []string{
		"max_air_temp",
		"max_air_temp=between=1:2",
		"max_air_temp=range=1",
		"max_air_temp=range=5:1",
		"max_air_temp=greater_than=warm",
		"met_domain_name=pattern=(",
		"=exact=1",
	} {
		_, err := processor.ParseConditions(spec)
		assert.ErrorIs(t, err, exception.ErrInvalidCondition, spec)
	}
}

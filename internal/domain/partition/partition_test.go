package partition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/internal/domain/partition"
	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
)

func TestParse(t *testing.T) {
	p, ok := partition.Parse("GL/yearly_files/midas_glblwx-europe_200401-200412.txt")
	require.True(t, ok)
	assert.Equal(t, "glblwx-europe", p.Region)
	assert.Equal(t, 200401, p.StartYM)
	assert.Equal(t, 200412, p.EndYM)
	assert.Equal(t, "midas_glblwx-europe_200401-200412.txt", p.Name())

	p, ok = partition.Parse("TD/yearly_files/midas_tempdrnl_199901-199912.txt")
	require.True(t, ok)
	assert.Equal(t, "tempdrnl", p.Region)

	_, ok = partition.Parse("TD/yearly_files/README")
	assert.False(t, ok)
	_, ok = partition.Parse("TD/yearly_files/midas_tempdrnl_1999-2000.txt")
	assert.False(t, ok)
}

func TestSelect_InclusiveOverlap(t *testing.T) {
	parts := []partition.Partition{
		{Object: "c_x_200501-200512.txt", StartYM: 200501, EndYM: 200512},
		{Object: "a_x_200301-200312.txt", StartYM: 200301, EndYM: 200312},
		{Object: "b_x_200401-200412.txt", StartYM: 200401, EndYM: 200412},
	}

	w, err := timewindow.New("200312", "200401", time.Now())
	require.NoError(t, err)
	got := partition.Select(parts, w)
	require.Len(t, got, 2)
	assert.Equal(t, 200301, got[0].StartYM)
	assert.Equal(t, 200401, got[1].StartYM)

	w, err = timewindow.New("200601", "200612", time.Now())
	require.NoError(t, err)
	assert.Empty(t, partition.Select(parts, w))
}

package partition_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bansalr/parfun/partition"
)

func TestCheckBounds(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		actual    int
		wantErr   bool
	}{
		{"actual within bounds", 10, 7, false},
		{"actual equals requested", 10, 10, false},
		{"actual zero", 10, 0, true},
		{"actual negative", 10, -1, true},
		{"actual exceeds requested", 10, 11, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := partition.CheckBounds(tc.requested, tc.actual)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			var bound *partition.SizeBoundError
			assert.ErrorAs(t, err, &bound)
			assert.Equal(t, tc.requested, bound.Requested)
			assert.Equal(t, tc.actual, bound.Actual)
			assert.True(t, errors.Is(err, partition.ErrInvalidPartition))
		})
	}
}

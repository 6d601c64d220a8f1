package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_RoundTripsConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("topic missing", nil), KindNotFound},
		{"remote", Remote("peer unreachable", nil), KindRemote},
		{"dimension mismatch", DimensionMismatch(768, 384), KindDimensionMismatch},
		{"transport", Transport("pipe closed", nil), KindTransport},
		{"validation", Validation("bad extension"), KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKindOf_PlainErrorHasZeroKind(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}

func TestDimensionMismatch_CarriesBothDims(t *testing.T) {
	err := DimensionMismatch(768, 384)
	assert.Equal(t, "768", err.Details["store_dim"])
	assert.Equal(t, "384", err.Details["query_dim"])
}

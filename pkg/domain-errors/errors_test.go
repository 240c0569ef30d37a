package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "already owned")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches inner code through wrapping", func(t *testing.T) {
		inner := New(CodeNotFound, "claim not found")
		outer := Wrap(inner, CodeInternal, "approve claim")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("tx: %w", New(CodeConflict, "processed"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("raw")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeValidation:   http.StatusBadRequest,
		CodeConflict:     http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("pq: deadlock"), CodeInternal, "failed to approve claim")
	assert.Equal(t, "failed to approve claim: pq: deadlock", err.Error())
	assert.Equal(t, "already owned", New(CodeConflict, "already owned").Error())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"catdist/domain/core"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad alpha")
	err := Wrap(base, "loading settings")

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "loading settings: bad alpha", err.Error())
	assert.True(t, stderrors.Is(err, base))
	assert.Nil(t, Wrap(nil, "x"))
}

func TestWrapClassifiesDomainErrors(t *testing.T) {
	err := Wrapf(core.NewSizeLimitError("rows", 11, 10), "request %s", "r1")
	assert.Equal(t, CodeSizeLimit, GetCode(err))
	assert.True(t, core.IsSizeLimit(err))
}

func TestFromDomain(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{core.NewStaleSourceError("density"), CodeStaleSource, http.StatusConflict},
		{core.NewSizeLimitError("categories", 3, 2), CodeSizeLimit, http.StatusRequestEntityTooLarge},
		{core.NewTimeoutError("comparison", nil), CodeTimeout, http.StatusGatewayTimeout},
		{fmt.Errorf("%w: axis", core.ErrInvalidSettings), CodeInvalidInput, http.StatusBadRequest},
		{stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{NotFound("category"), CodeNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		got := FromDomain(tc.err)
		assert.Equal(t, tc.code, GetCode(got), tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
		assert.True(t, stderrors.Is(got, tc.err))
	}
	assert.Nil(t, FromDomain(nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("conn refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.False(t, IsAppError(stderrors.New("plain")))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

package apperror

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errSample = New(KindCapacity, "INSUFFICIENT_BALANCE", "Insufficient wallet balance")

func TestSentinelMatchesByCode(t *testing.T) {
	err := errors.Wrap(errSample.WithMessage("need %d more", 100), "create order")

	require.True(t, errors.Is(err, errSample))
	ae, ok := As(err)
	require.True(t, ok)
	require.Equal(t, "need 100 more", ae.Message)
	require.Equal(t, http.StatusBadRequest, ae.Kind.HTTPStatus())
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	ae := From(errors.New("boom"), "ORDER_CREATION_FAILED", "Failed to create order")
	require.Equal(t, KindInternal, ae.Kind)
	require.Equal(t, "ORDER_CREATION_FAILED", ae.Code)
	require.Equal(t, http.StatusInternalServerError, ae.Kind.HTTPStatus())
	require.Contains(t, Stack(ae), "boom")

	require.Nil(t, From(nil, "X", "x"))
	require.Same(t, errSample, From(errSample, "X", "x"))
}

func TestKindStatuses(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindCapacity:     http.StatusBadRequest,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		require.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

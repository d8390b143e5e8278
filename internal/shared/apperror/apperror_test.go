package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{SeatConflict, 419},
		{PaymentRequired, http.StatusPaymentRequired},
		{TooMany, http.StatusTooManyRequests},
		{ServiceUnavailable, http.StatusServiceUnavailable},
		{BadGateway, http.StatusBadGateway},
		{Internal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.kind, "x")))
	}
}

func TestHTTPStatusUnclassifiedErrorIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestHTTPStatusSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("select seat: %w", New(SeatConflict, "Место уже зарезервировано"))
	assert.Equal(t, 419, HTTPStatus(err))
	assert.Equal(t, "Место уже зарезервировано", Message(err))
}

func TestMessageNeverLeaksInternals(t *testing.T) {
	err := Wrap(Internal, "Внутренняя ошибка сервера", errors.New("pq: connection refused"))
	assert.Equal(t, "Внутренняя ошибка сервера", Message(err))
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "Внутренняя ошибка сервера", Message(errors.New("raw db error")))
}

func TestFromGatewayCode(t *testing.T) {
	cases := map[int]int{
		1001: http.StatusUnauthorized,
		1002: http.StatusConflict,
		1004: http.StatusPaymentRequired,
		1006: http.StatusBadRequest,
		3015: http.StatusTooManyRequests,
		42:   http.StatusBadGateway,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(FromGatewayCode(code, "msg")), "code %d", code)
	}
}

package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cellAuthBody struct {
	PhoneLast4 string `json:"phoneLast4" validate:"required,phone4"`
	Date       string `json:"date,omitempty" validate:"omitempty,isodate"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body cellAuthBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phoneLast4":"1234","date":"2025-03-01"}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "1234", body.PhoneLast4)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phoneLast4":"12a4"}`))
	err := DecodeJSONBody(req, &cellAuthBody{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be 4 digits", details["phoneLast4"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phoneLast4":"1234","extra":1}`))
	assert.Error(t, DecodeJSONBody(req, &cellAuthBody{}), "unknown fields are rejected")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phoneLast4":"1234","date":"2025/03/01"}`))
	err = DecodeJSONBody(req, &cellAuthBody{})
	details, _ = pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must be YYYY-MM-DD", details["date"])
}

func TestDecodeEmptyBody(t *testing.T) {
	var body struct {
		ConfirmDiscard bool `json:"confirmDiscard"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.False(t, body.ConfirmDiscard)
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20&confirmed=true&startDate=2025-03-01&bad=x", nil)

	limit, err := ParseQueryInt(req, "limit", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	_, err = ParseQueryInt(req, "bad", 0, 0, 1)
	assert.Error(t, err)

	confirmed, err := ParseQueryBool(req, "confirmed")
	require.NoError(t, err)
	require.NotNil(t, confirmed)
	assert.True(t, *confirmed)
	missing, err := ParseQueryBool(req, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	date, err := ParseQueryDate(req, "startDate")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", date)
	_, err = ParseQueryDate(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeStringKeepsRunes(t *testing.T) {
	assert.Equal(t, "아메리", SanitizeString("  아메리카노 ", 3))
	assert.Equal(t, "latte", SanitizeString(" latte ", 0))
}

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", token)

	token, err = ParseBearer("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", token)

	_, err = ParseBearer("Bearer ")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseBearer("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

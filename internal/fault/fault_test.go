package fault

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromStoreNoRows(t *testing.T) {
	err := FromStore(sql.ErrNoRows, "sample")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "sample")
}

func TestFromStorePostgresCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23505", ErrConflict},
		{"23503", ErrInUse},
		{"23514", ErrInvalidInput},
		{"40001", ErrConflict},
		{"40P01", ErrConflict},
	}
	for _, c := range cases {
		err := FromStore(&pq.Error{Code: pq.ErrorCode(c.code), Constraint: "some_constraint"}, "equipment")
		assert.True(t, errors.Is(err, c.want), "code %s", c.code)
	}
}

func TestFromStorePassthrough(t *testing.T) {
	original := errors.New("connection reset")
	assert.Equal(t, original, FromStore(original, "user"))
	assert.NoError(t, FromStore(nil, "user"))

	// errors already classified by a lower layer stay intact
	conflict := Conflict("terminal has no terminal code assigned")
	assert.Equal(t, conflict, FromStore(conflict, "sample"))
}

func TestStatus(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:            NotFound("sample"),
		http.StatusBadRequest:          Invalid("bad code"),
		http.StatusConflict:            Conflict("duplicate"),
		http.StatusForbidden:           Forbidden("read-only role"),
		http.StatusUnauthorized:        ErrUnauthenticated,
		http.StatusInternalServerError: errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Status(err), "error %v", err)
	}
	assert.Equal(t, http.StatusBadRequest, Status(MissingField("certificate_number")))
	assert.Equal(t, http.StatusConflict, Status(InUse("sample")))
}

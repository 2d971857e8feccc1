package formdata_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

func TestReadLimited(t *testing.T) {
	t.Parallel()

	t.Run("under the limit", func(t *testing.T) {
		t.Parallel()
		data, err := formdata.ReadLimited(strings.NewReader("hello"), "f", 10)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("at the limit", func(t *testing.T) {
		t.Parallel()
		data, err := formdata.ReadLimited(iotest.OneByteReader(strings.NewReader("hello")), "f", 5)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("one byte over", func(t *testing.T) {
		t.Parallel()
		_, err := formdata.ReadLimited(strings.NewReader("hello!"), "f", 5)
		require.Error(t, err)
		var de *formdata.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, formdata.KindSizeLimitExceeded, de.Kind)
		assert.Equal(t, "f", de.Field)
		assert.Equal(t, int64(5), de.Limit)
	})

	t.Run("zero limit accepts only empty input", func(t *testing.T) {
		t.Parallel()
		data, err := formdata.ReadLimited(strings.NewReader(""), "f", 0)
		require.NoError(t, err)
		assert.Empty(t, data)

		_, err = formdata.ReadLimited(strings.NewReader("x"), "f", 0)
		assert.ErrorIs(t, err, formdata.ErrSizeLimitExceeded)
	})

	t.Run("reads at most limit plus one byte", func(t *testing.T) {
		t.Parallel()
		r := strings.NewReader(strings.Repeat("a", 1000))
		_, err := formdata.ReadLimited(r, "f", 10)
		require.ErrorIs(t, err, formdata.ErrSizeLimitExceeded)
		assert.Equal(t, 1000-11, r.Len())
	})

	t.Run("unlimited", func(t *testing.T) {
		t.Parallel()
		payload := strings.Repeat("u", 100<<10)
		data, err := formdata.ReadLimited(strings.NewReader(payload), "f", formdata.Unlimited)
		require.NoError(t, err)
		assert.Len(t, data, len(payload))
	})

	t.Run("read errors carry the field", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := formdata.ReadLimited(io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom)), "f", 10)
		require.ErrorIs(t, err, boom)
		var de *formdata.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, formdata.KindStream, de.Kind)
		assert.Equal(t, "f", de.Field)
	})
}

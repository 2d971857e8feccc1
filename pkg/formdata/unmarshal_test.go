package formdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

var profileSchema = formdata.MustSchema(
	formdata.Field{Name: "avatar", Type: formdata.TypeFile, Cardinality: formdata.Required},
	formdata.Field{Name: "tags", Type: formdata.TypeString, Cardinality: formdata.List},
	formdata.Field{Name: "public", Type: formdata.TypeBool, Cardinality: formdata.Optional},
	formdata.Field{Name: "age", Type: formdata.TypeNumber, Cardinality: formdata.Optional, Integer: true},
	formdata.Field{Name: "score", Type: formdata.TypeNumber, Cardinality: formdata.Optional},
)

func profileForm(t *testing.T, parts ...formdata.RawPart) *formdata.Form {
	t.Helper()
	avatar := formdata.RawPart{Name: "avatar", Filename: "me.png", HasFilename: true, ContentType: "image/png", Body: []byte("png")}
	form, err := formdata.MapParts(profileSchema, append([]formdata.RawPart{avatar}, parts...), false)
	require.NoError(t, err)
	return form
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("all supported kinds", func(t *testing.T) {
		t.Parallel()
		type request struct {
			Avatar  formdata.File  `form:"avatar"`
			Copy    *formdata.File `form:"avatar"`
			Raw     []byte         `form:"avatar"`
			Tags    []string       `form:"tags"`
			Public  *bool          `form:"public"`
			Age     uint8          `form:"age"`
			Score   float32        `form:"score"`
			Ignored string         `form:"-"`
			hidden  string
		}
		form := profileForm(t, text("tags", "a"), text("tags", "b"), text("public", "true"), text("age", "42"), text("score", "9.5"))

		var req request
		require.NoError(t, formdata.Unmarshal(form, &req))
		assert.Equal(t, "me.png", req.Avatar.Filename)
		require.NotNil(t, req.Copy)
		assert.Equal(t, "image/png", req.Copy.ContentType)
		assert.Equal(t, []byte("png"), req.Raw)
		assert.Equal(t, []string{"a", "b"}, req.Tags)
		require.NotNil(t, req.Public)
		assert.True(t, *req.Public)
		assert.Equal(t, uint8(42), req.Age)
		assert.InDelta(t, 9.5, req.Score, 1e-6)
		assert.Empty(t, req.Ignored)
		assert.Empty(t, req.hidden)
	})

	t.Run("absent optional stays nil", func(t *testing.T) {
		t.Parallel()
		var req struct {
			Public *bool
			Age    *int
		}
		require.NoError(t, formdata.Unmarshal(profileForm(t), &req))
		assert.Nil(t, req.Public)
		assert.Nil(t, req.Age)
	})

	t.Run("whole float into int", func(t *testing.T) {
		t.Parallel()
		var req struct {
			Score int `form:"score"`
		}
		require.NoError(t, formdata.Unmarshal(profileForm(t, text("score", "3")), &req))
		assert.Equal(t, 3, req.Score)

		err := formdata.Unmarshal(profileForm(t, text("score", "3.5")), &req)
		assert.ErrorIs(t, err, formdata.ErrBind)
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()
		var req struct {
			Age int8 `form:"age"`
		}
		err := formdata.Unmarshal(profileForm(t, text("age", "300")), &req)
		assert.ErrorIs(t, err, formdata.ErrBind)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		t.Parallel()
		var req struct {
			Tags []int `form:"tags"`
		}
		err := formdata.Unmarshal(profileForm(t, text("tags", "a")), &req)
		assert.ErrorIs(t, err, formdata.ErrBind)
	})

	t.Run("invalid targets", func(t *testing.T) {
		t.Parallel()
		form := profileForm(t)
		var s struct{}
		assert.ErrorIs(t, formdata.Unmarshal(nil, &s), formdata.ErrBind)
		assert.ErrorIs(t, formdata.Unmarshal(form, s), formdata.ErrBind)
		var n int
		assert.ErrorIs(t, formdata.Unmarshal(form, &n), formdata.ErrBind)
	})
}

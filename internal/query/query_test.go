package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zarick1/natours/internal/errors"
)

var tourCols = NewColumns("id",
	Col{Field: "id", SQL: "id"},
	Col{Field: "name", SQL: "name"},
	Col{Field: "price", SQL: "price", Kind: Numeric},
	Col{Field: "duration", SQL: "duration", Kind: Numeric},
	Col{Field: "difficulty", SQL: "difficulty"},
	Col{Field: "ratingsAverage", SQL: "ratings_average", Kind: Numeric},
	Col{Field: "secret", SQL: "secret", Kind: Bool},
)

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestBuild_Filters(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Filter
	}{
		{
			name: "plain key is equality",
			raw:  "difficulty=easy",
			want: []Filter{{Field: "difficulty", Op: OpEq, Value: "easy"}},
		},
		{
			name: "gte operator",
			raw:  "price%5Bgte%5D=500",
			want: []Filter{{Field: "price", Op: OpGte, Value: "500"}},
		},
		{
			name: "lt operator",
			raw:  "duration%5Blt%5D=10",
			want: []Filter{{Field: "duration", Op: OpLt, Value: "10"}},
		},
		{
			name: "reserved keys never become filters",
			raw:  "page=2&sort=price&limit=10&fields=name",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Build(mustParse(t, tc.raw))
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, spec.Filters)
		})
	}
}

func TestBuild_UnknownOperatorRejected(t *testing.T) {
	_, err := Build(mustParse(t, "price%5Bbetween%5D=500"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestBuild_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, 100, 0},
		{"page two of ten", "page=2&limit=10", 2, 10, 10},
		{"non-numeric falls back", "page=abc&limit=xyz", 1, 100, 0},
		{"zero and negative fall back", "page=0&limit=-5", 1, 100, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Build(mustParse(t, tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, spec.Page)
			assert.Equal(t, tc.wantLimit, spec.Limit)
			assert.Equal(t, tc.wantOffset, spec.Offset())
		})
	}
}

func TestBuild_Sort(t *testing.T) {
	spec, err := Build(mustParse(t, "sort=-price,ratingsAverage"))
	require.NoError(t, err)
	assert.Equal(t, []SortKey{
		{Field: "price", Desc: true},
		{Field: "ratingsAverage", Desc: false},
	}, spec.Sort)
}

func TestBuild_Fields(t *testing.T) {
	spec, err := Build(mustParse(t, "fields=name,price, duration"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price", "duration"}, spec.Fields)
}

func TestWhere(t *testing.T) {
	t.Run("renders comparisons with typed args", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{
			{Field: "price", Op: OpGte, Value: "500"},
			{Field: "difficulty", Op: OpEq, Value: "easy"},
		}}
		clause, args, err := spec.Where(tourCols, 1)
		require.NoError(t, err)
		assert.Equal(t, "price >= $1 AND difficulty = $2", clause)
		assert.Equal(t, []any{int64(500), "easy"}, args)
	})

	t.Run("placeholder numbering continues from startArg", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "ratingsAverage", Op: OpGte, Value: "4.5"}}}
		clause, args, err := spec.Where(tourCols, 3)
		require.NoError(t, err)
		assert.Equal(t, "ratings_average >= $3", clause)
		assert.Equal(t, []any{4.5}, args)
	})

	t.Run("empty filter set yields empty clause", func(t *testing.T) {
		spec := &Spec{}
		clause, args, err := spec.Where(tourCols, 1)
		require.NoError(t, err)
		assert.Empty(t, clause)
		assert.Empty(t, args)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "password_hash", Op: OpEq, Value: "x"}}}
		_, _, err := spec.Where(tourCols, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("non-numeric value for numeric column rejected", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "price", Op: OpGte, Value: "abc"}}}
		_, _, err := spec.Where(tourCols, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("bool column binds typed and rejects junk", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "secret", Op: OpEq, Value: "true"}}}
		_, args, err := spec.Where(tourCols, 1)
		require.NoError(t, err)
		assert.Equal(t, []any{true}, args)

		spec = &Spec{Filters: []Filter{{Field: "secret", Op: OpEq, Value: "maybe"}}}
		_, _, err = spec.Where(tourCols, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestOrderBy(t *testing.T) {
	t.Run("default is ascending id", func(t *testing.T) {
		clause, err := (&Spec{}).OrderBy(tourCols)
		require.NoError(t, err)
		assert.Equal(t, "id ASC", clause)
	})

	t.Run("id tiebreaker appended", func(t *testing.T) {
		spec := &Spec{Sort: []SortKey{{Field: "price", Desc: true}}}
		clause, err := spec.OrderBy(tourCols)
		require.NoError(t, err)
		assert.Equal(t, "price DESC, id ASC", clause)
	})

	t.Run("explicit id sort is not duplicated", func(t *testing.T) {
		spec := &Spec{Sort: []SortKey{{Field: "id", Desc: true}}}
		clause, err := spec.OrderBy(tourCols)
		require.NoError(t, err)
		assert.Equal(t, "id DESC", clause)
	})

	t.Run("unknown sort field rejected", func(t *testing.T) {
		spec := &Spec{Sort: []SortKey{{Field: "created_by"}}}
		_, err := spec.OrderBy(tourCols)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, (&Spec{Fields: []string{"name", "price"}}).ValidateFields(tourCols))

	err := (&Spec{Fields: []string{"created_by"}}).ValidateFields(tourCols)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestProject(t *testing.T) {
	type tour struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	item := tour{ID: "t1", Name: "Forest Hiker", Price: 497}

	t.Run("keeps requested fields plus id", func(t *testing.T) {
		got, err := Project(item, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "t1", "name": "Forest Hiker"}, got)
	})

	t.Run("empty projection keeps everything", func(t *testing.T) {
		got, err := Project(item, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("project list", func(t *testing.T) {
		got, err := ProjectList([]tour{item, {ID: "t2", Name: "Sea Explorer", Price: 397}}, []string{"price"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, map[string]any{"id": "t2", "price": float64(397)}, got[1])
	})
}

func TestValidate_ChecksEveryReferencedField(t *testing.T) {
	t.Run("filter on unknown column", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "password_hash", Op: OpGte, Value: "a"}}}
		err := spec.Validate(tourCols)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("sort on unknown column", func(t *testing.T) {
		spec := &Spec{Sort: []SortKey{{Field: "internal_notes"}}}
		require.Error(t, spec.Validate(tourCols))
	})

	t.Run("filter value must fit the column kind", func(t *testing.T) {
		spec := &Spec{Filters: []Filter{{Field: "price", Op: OpEq, Value: "cheap"}}}
		err := spec.Validate(tourCols)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("projection on unknown column", func(t *testing.T) {
		spec := &Spec{Fields: []string{"nope"}}
		require.Error(t, spec.Validate(tourCols))
	})

	t.Run("all known", func(t *testing.T) {
		spec := &Spec{
			Filters: []Filter{{Field: "price", Op: OpLt, Value: "1000"}},
			Sort:    []SortKey{{Field: "price", Desc: true}},
			Fields:  []string{"name"},
		}
		require.NoError(t, spec.Validate(tourCols))
	})
}

package model

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validInput() ItemInput {
	return ItemInput{
		Title:        "Vintage Denim Jacket",
		Description:  "Classic 90s denim jacket, barely worn.",
		Category:     CategoryJackets,
		Size:         "M",
		Condition:    ConditionGood,
		Color:        "blue",
		Location:     "Ljubljana",
		Tags:         []string{"denim", "vintage"},
		ExchangeType: ExchangeTypeGiveaway,
	}
}

func fieldNames(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	var names []string
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateItemAccepts(t *testing.T) {
	in := validInput()
	require.NoError(t, ValidateItem(&in))
	assert.Equal(t, DefaultBrand, in.Brand)
	assert.Equal(t, DefaultMaterial, in.Material)
}

func TestValidateItemNamesEveryMissingField(t *testing.T) {
	in := ItemInput{}
	err := ValidateItem(&in)
	require.Error(t, err)

	assert.ElementsMatch(t,
		[]string{"title", "description", "category", "size", "condition", "color", "location", "exchange_type"},
		fieldNames(err),
	)
}

func TestValidateItemLimits(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*ItemInput)
		field string
	}{
		{"title", func(in *ItemInput) { in.Title = strings.Repeat("a", 101) }, "title"},
		{"description", func(in *ItemInput) { in.Description = strings.Repeat("a", 1001) }, "description"},
		{"brand", func(in *ItemInput) { in.Brand = strings.Repeat("a", 51) }, "brand"},
		{"color", func(in *ItemInput) { in.Color = strings.Repeat("a", 31) }, "color"},
		{"material", func(in *ItemInput) { in.Material = strings.Repeat("a", 101) }, "material"},
		{"location", func(in *ItemInput) { in.Location = strings.Repeat("a", 101) }, "location"},
		{"tag", func(in *ItemInput) { in.Tags = []string{"ok", strings.Repeat("a", 21)} }, "tags[1]"},
		{"points", func(in *ItemInput) { in.Points = -1 }, "points"},
		{"category", func(in *ItemInput) { in.Category = "socks" }, "category"},
		{"size", func(in *ItemInput) { in.Size = "13" }, "size"},
		{"condition", func(in *ItemInput) { in.Condition = "destroyed" }, "condition"},
		{"exchange type", func(in *ItemInput) { in.ExchangeType = "auction" }, "exchange_type"},
		{"image url", func(in *ItemInput) { in.Images = []string{"not a url"} }, "images[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mut(&in)
			err := ValidateItem(&in)
			require.Error(t, err)
			assert.Equal(t, []string{tt.field}, fieldNames(err))
		})
	}
}

func TestValidateItemBoundaryLengths(t *testing.T) {
	in := validInput()
	in.Title = strings.Repeat("ž", 100)
	in.Description = strings.Repeat("a", 1000)
	in.Tags = []string{strings.Repeat("t", 20)}
	assert.NoError(t, ValidateItem(&in))
}

func TestNormalizeTagsCollapsesDuplicates(t *testing.T) {
	got := NormalizeTags([]string{" denim", "denim", "", "90s", "90s "})
	assert.Equal(t, []string{"denim", "90s"}, got)
}

func TestIsValidSize(t *testing.T) {
	for _, s := range []string{"XS", "S", "M", "L", "XL", "XXL", "XXXL", "One Size", "Custom", "2", "38", "60"} {
		assert.True(t, IsValidSize(s), s)
	}
	for _, s := range []string{"", "m", "0", "1", "3", "62", "040", "XXXXL"} {
		assert.False(t, IsValidSize(s), s)
	}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-10, 100).Draw(t, "n")
		want := n >= 2 && n <= 60 && n%2 == 0
		if got := IsValidSize(strconv.Itoa(n)); got != want {
			t.Fatalf("IsValidSize(%d) = %v, want %v", n, got, want)
		}
	})
}

func TestItemPatchApply(t *testing.T) {
	in := validInput()
	title := "Denim Jacket"
	points := 20
	ItemPatch{Title: &title, Points: &points}.Apply(&in)

	assert.Equal(t, "Denim Jacket", in.Title)
	assert.Equal(t, 20, in.Points)
	assert.Equal(t, "M", in.Size)
}

func TestValidateRegisterInput(t *testing.T) {
	in := RegisterInput{
		Username:  "ana_k",
		Email:     "ana@example.com",
		Password:  "correct-horse",
		FirstName: "Ana",
		LastName:  "Kovač",
	}
	require.NoError(t, Validate(&in))

	in.Username = "ana k"
	in.Email = "nope"
	assert.ElementsMatch(t, []string{"username", "email"}, fieldNames(Validate(&in)))
}

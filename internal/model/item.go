package model

import (
	"strconv"
	"strings"
	"time"
)

// Item is a single clothing article listed for exchange.
type Item struct {
	ID              string       `json:"id" db:"id"`
	OwnerID         string       `json:"owner_id" db:"owner_id"`
	Title           string       `json:"title" db:"title"`
	Description     string       `json:"description" db:"description"`
	Category        string       `json:"category" db:"category"`
	Size            string       `json:"size" db:"size"`
	Condition       string       `json:"condition" db:"condition"`
	Brand           string       `json:"brand" db:"brand"`
	Color           string       `json:"color" db:"color"`
	Material        string       `json:"material" db:"material"`
	Location        string       `json:"location" db:"location"`
	Status          Status       `json:"status" db:"status"`
	Points          int          `json:"points" db:"points"`
	ExchangeType    string       `json:"exchange_type" db:"exchange_type"`
	Views           int          `json:"views" db:"views"`
	IsActive        bool         `json:"is_active" db:"is_active"`
	FavoriteCount   int          `json:"favorite_count" db:"favorite_count"`
	InterestedCount int          `json:"interested_count" db:"interested_count"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
	Tags            []string     `json:"tags" db:"-"`
	Images          []ItemImage  `json:"images" db:"-"`
	Owner           *UserSummary `json:"owner,omitempty" db:"-"`
}

// ItemImage is one entry in an item's ordered image list. Data is only
// present for images hosted by this service.
type ItemImage struct {
	Position int    `json:"position" db:"position"`
	URL      string `json:"url" db:"url"`
	Data     []byte `json:"-" db:"data"`
	MIME     string `json:"-" db:"mime"`
}

// ItemDetail is an item with its engagement state resolved.
type ItemDetail struct {
	Item
	Favorites       []UserSummary `json:"favorites"`
	InterestedUsers []Interest    `json:"interested_users"`
	ExchangeHistory []Exchange    `json:"exchange_history"`
}

// Categories.
const (
	CategoryShirts      = "shirts"
	CategoryPants       = "pants"
	CategoryDresses     = "dresses"
	CategorySkirts      = "skirts"
	CategoryJackets     = "jackets"
	CategoryCoats       = "coats"
	CategoryShoes       = "shoes"
	CategoryAccessories = "accessories"
	CategoryJewelry     = "jewelry"
	CategoryBags        = "bags"
	CategoryHats        = "hats"
	CategoryScarves     = "scarves"
	CategorySports      = "sports"
	CategoryFormal      = "formal"
	CategoryCasual      = "casual"
	CategoryVintage     = "vintage"
	CategoryOther       = "other"
)

var categories = map[string]bool{
	CategoryShirts: true, CategoryPants: true, CategoryDresses: true, CategorySkirts: true,
	CategoryJackets: true, CategoryCoats: true, CategoryShoes: true, CategoryAccessories: true,
	CategoryJewelry: true, CategoryBags: true, CategoryHats: true, CategoryScarves: true,
	CategorySports: true, CategoryFormal: true, CategoryCasual: true, CategoryVintage: true,
	CategoryOther: true,
}

// Conditions.
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like-new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
)

var conditions = map[string]bool{
	ConditionNew: true, ConditionLikeNew: true, ConditionGood: true, ConditionFair: true, ConditionPoor: true,
}

// Exchange types.
const (
	ExchangeTypeGiveaway = "giveaway"
	ExchangeTypeTrade    = "trade"
	ExchangeTypeSale     = "sale"
)

var exchangeTypes = map[string]bool{
	ExchangeTypeGiveaway: true, ExchangeTypeTrade: true, ExchangeTypeSale: true,
}

var letterSizes = map[string]bool{
	"XS": true, "S": true, "M": true, "L": true, "XL": true, "XXL": true, "XXXL": true,
	"One Size": true, "Custom": true,
}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c string) bool { return categories[c] }

// IsValidCondition reports whether c is a known condition.
func IsValidCondition(c string) bool { return conditions[c] }

// IsValidExchangeType reports whether t is a known exchange type.
func IsValidExchangeType(t string) bool { return exchangeTypes[t] }

// IsValidSize reports whether s is a letter size, "One Size", "Custom", or an
// even numeric size from 2 to 60.
func IsValidSize(s string) bool {
	if letterSizes[s] {
		return true
	}
	n, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(n) != s {
		return false
	}
	return n >= 2 && n <= 60 && n%2 == 0
}

// Default values for optional descriptive fields.
const (
	DefaultBrand    = "Unknown"
	DefaultMaterial = "Unknown"
)

// ItemInput carries the descriptive fields of an item on create and the
// merged result of a partial update.
type ItemInput struct {
	Title        string   `json:"title" validate:"required,max=100"`
	Description  string   `json:"description" validate:"required,max=1000"`
	Category     string   `json:"category" validate:"required,item_category"`
	Size         string   `json:"size" validate:"required,item_size"`
	Condition    string   `json:"condition" validate:"required,item_condition"`
	Brand        string   `json:"brand" validate:"max=50"`
	Color        string   `json:"color" validate:"required,max=30"`
	Material     string   `json:"material" validate:"max=100"`
	Location     string   `json:"location" validate:"required,max=100"`
	Tags         []string `json:"tags" validate:"dive,max=20"`
	Points       int      `json:"points" validate:"gte=0"`
	ExchangeType string   `json:"exchange_type" validate:"required,item_exchange_type"`
	// Images are externally hosted image URLs.
	Images       []string `json:"images" validate:"dive,url"`
}

// Normalize trims whitespace, applies defaults and collapses duplicate tags.
func (in *ItemInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Size = strings.TrimSpace(in.Size)
	in.Condition = strings.TrimSpace(in.Condition)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Color = strings.TrimSpace(in.Color)
	in.Material = strings.TrimSpace(in.Material)
	in.Location = strings.TrimSpace(in.Location)
	in.ExchangeType = strings.TrimSpace(in.ExchangeType)

	if in.Brand == "" {
		in.Brand = DefaultBrand
	}
	if in.Material == "" {
		in.Material = DefaultMaterial
	}

	in.Tags = NormalizeTags(in.Tags)
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// InputFromItem returns the editable fields of an existing item. Images are
// left empty; stored images are only replaced when a patch supplies new ones.
func InputFromItem(item *Item) ItemInput {
	return ItemInput{
		Title:        item.Title,
		Description:  item.Description,
		Category:     item.Category,
		Size:         item.Size,
		Condition:    item.Condition,
		Brand:        item.Brand,
		Color:        item.Color,
		Material:     item.Material,
		Location:     item.Location,
		Tags:         append([]string(nil), item.Tags...),
		Points:       item.Points,
		ExchangeType: item.ExchangeType,
	}
}

// ItemPatch is a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Category     *string   `json:"category"`
	Size         *string   `json:"size"`
	Condition    *string   `json:"condition"`
	Brand        *string   `json:"brand"`
	Color        *string   `json:"color"`
	Material     *string   `json:"material"`
	Location     *string   `json:"location"`
	Tags         *[]string `json:"tags"`
	Points       *int      `json:"points"`
	ExchangeType *string   `json:"exchange_type"`
	Images       *[]string `json:"images"`
}

// Apply merges the patch into in.
func (p ItemPatch) Apply(in *ItemInput) {
	setString(&in.Title, p.Title)
	setString(&in.Description, p.Description)
	setString(&in.Category, p.Category)
	setString(&in.Size, p.Size)
	setString(&in.Condition, p.Condition)
	setString(&in.Brand, p.Brand)
	setString(&in.Color, p.Color)
	setString(&in.Material, p.Material)
	setString(&in.Location, p.Location)
	setString(&in.ExchangeType, p.ExchangeType)
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	if p.Points != nil {
		in.Points = *p.Points
	}
	if p.Images != nil {
		in.Images = *p.Images
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

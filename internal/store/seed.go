package store

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/garderoba/internal/model"
)

// Seed is a fixture of demo users and their items.
type Seed struct {
	Users []SeedUser `yaml:"users"`
	Items []SeedItem `yaml:"items"`
}

// SeedUser is a user in a seed fixture.
type SeedUser struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Location  string `yaml:"location"`
	Points    int    `yaml:"points"`
}

// SeedItem is an item in a seed fixture, owned by the user named in Owner.
type SeedItem struct {
	Owner        string   `yaml:"owner"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Size         string   `yaml:"size"`
	Condition    string   `yaml:"condition"`
	Brand        string   `yaml:"brand"`
	Color        string   `yaml:"color"`
	Material     string   `yaml:"material"`
	Location     string   `yaml:"location"`
	Tags         []string `yaml:"tags"`
	Points       int      `yaml:"points"`
	ExchangeType string   `yaml:"exchange_type"`
	Images       []string `yaml:"images"`
}

// ParseSeed decodes a YAML seed fixture.
func ParseSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &s, nil
}

// LoadSeed creates the users and items of a seed fixture and returns how
// many of each were created.
func LoadSeed(ctx context.Context, db *sqlx.DB, s *Seed) (users, items int, err error) {
	ids := make(map[string]string, len(s.Users))

	for _, su := range s.Users {
		if err := model.ValidatePassword(su.Password); err != nil {
			return users, items, fmt.Errorf("seed user %s: %w", su.Username, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return users, items, fmt.Errorf("hashing seed password: %w", err)
		}
		u, err := CreateUser(ctx, db, NewUser{
			Username:     su.Username,
			Email:        su.Email,
			PasswordHash: string(hash),
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			Location:     su.Location,
			Points:       su.Points,
		})
		if err != nil {
			return users, items, fmt.Errorf("seed user %s: %w", su.Username, err)
		}
		ids[su.Username] = u.ID
		users++
	}

	for _, si := range s.Items {
		ownerID, ok := ids[si.Owner]
		if !ok {
			return users, items, fmt.Errorf("seed item %q: unknown owner %q", si.Title, si.Owner)
		}
		_, err := CreateItem(ctx, db, ownerID, model.ItemInput{
			Title:        si.Title,
			Description:  si.Description,
			Category:     si.Category,
			Size:         si.Size,
			Condition:    si.Condition,
			Brand:        si.Brand,
			Color:        si.Color,
			Material:     si.Material,
			Location:     si.Location,
			Tags:         si.Tags,
			Points:       si.Points,
			ExchangeType: si.ExchangeType,
			Images:       si.Images,
		})
		if err != nil {
			return users, items, fmt.Errorf("seed item %q: %w", si.Title, err)
		}
		items++
	}

	return users, items, nil
}

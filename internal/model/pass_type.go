package model

import (
	"strings"
	"time"
)

// Pass category names.  The set is closed.
const (
	PassTeens  = "Teens"
	PassCouple = "Couple"
	PassFamily = "Family"
)

// CanonicalPassName returns the canonical spelling of a category name,
// matching case-insensitively, and false for names outside the set.
func CanonicalPassName(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "teens":
		return PassTeens, true
	case "couple":
		return PassCouple, true
	case "family":
		return PassFamily, true
	}
	return "", false
}

// PassType is a row of `pass_types`: one admission category with its
// unit price and the maximum number of people a single booking covers.
type PassType struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	MaxPeople     int       `json:"max_people"`
	NoOfPeople    int       `json:"no_of_people"`
	NoOfPasses    int       `json:"no_of_passes"`
	ValidForEvent string    `json:"valid_for_event"`
	Description   string    `json:"description"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

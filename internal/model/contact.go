// Package model defines domain entities for the application.
package model

import "time"

// Place is a business returned by the search collaborator.
type Place struct {
	PlaceID              string  `json:"place_id" validate:"required"`
	Name                 string  `json:"name" validate:"required"`
	FormattedAddress     string  `json:"formatted_address" validate:"required"`
	Rating               float64 `json:"rating" validate:"gte=0,lte=5"`
	UserRatingsTotal     int     `json:"user_ratings_total" validate:"gte=0"`
	BusinessStatus       string  `json:"business_status" validate:"required"`
	Website              string  `json:"website,omitempty"`
	FormattedPhoneNumber string  `json:"formatted_phone_number,omitempty"`
}

// Contact is a saved lead: a place plus the moment consent was recorded.
type Contact struct {
	Place
	ConsentTimestamp time.Time `json:"consent_timestamp"`
}

// SearchQuery describes a lead search.
type SearchQuery struct {
	Segment    string `json:"segment" validate:"required,max=200"`
	Location   string `json:"location" validate:"required,max=200"`
	RadiusKm   int    `json:"radius_km" validate:"gte=1,lte=100"`
	MaxResults int    `json:"max_results" validate:"gte=1,lte=50"`
}

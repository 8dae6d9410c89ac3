package dto

import "time"

type RateRequest struct {
	Rating int `json:"rating"`
}

type RatingResponse struct {
	ID         int64     `json:"id"`
	Module     string    `json:"module"`
	ItemID     string    `json:"item_id"`
	Rating     int       `json:"rating"`
	NumRatings int       `json:"num_ratings"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RatingEnvelope struct {
	Data *RatingResponse `json:"data"`
}

type RatingListResponse struct {
	Data  []RatingResponse `json:"data"`
	Total int              `json:"total"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type RateResponse struct {
	Accepted bool            `json:"accepted"`
	Rating   *RatingResponse `json:"rating"`
	Average  *int            `json:"average"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package dto

import (
	"time"

	"ratings/internal/microservices/http-api/models"
)

// RateItemRequest is the body of POST /api/ratings/items/:module/:item_id.
// The 0..100 range is checked by the service so that it maps to ErrInvalidInput.
type RateItemRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

// AjaxRateForm is the form posted by the rating widget.
type AjaxRateForm struct {
	Module     string `form:"modname" binding:"required"`
	ObjectID   string `form:"objectid" binding:"required"`
	Rating     *int   `form:"rating" binding:"required"`
	RatingType string `form:"ratingtype"`
	ReturnURL  string `form:"returnurl"`
}

// RatingResponse for returning an item's aggregate rating
type RatingResponse struct {
	ID         int64     `json:"id"`
	Module     string    `json:"module"`
	ItemID     string    `json:"item_id"`
	Rating     int       `json:"rating"`
	NumRatings int       `json:"num_ratings"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FromModelToRatingResponse converts a Rating model to RatingResponse DTO.
// A nil model yields nil so absent ratings serialize as null.
func FromModelToRatingResponse(rating *models.Rating) *RatingResponse {
	if rating == nil {
		return nil
	}
	return &RatingResponse{
		ID:         rating.ID,
		Module:     rating.Module,
		ItemID:     rating.ItemID,
		Rating:     rating.Average,
		NumRatings: rating.Count,
		UpdatedAt:  rating.UpdatedAt,
	}
}

type RatingEnvelope struct {
	Data *RatingResponse `json:"data"`
}

type RatingListResponse struct {
	Data  []RatingResponse `json:"data"`
	Total int              `json:"total"`
}

func NewRatingListResponse(ratings []models.Rating) *RatingListResponse {
	data := make([]RatingResponse, 0, len(ratings))
	for i := range ratings {
		data = append(data, *FromModelToRatingResponse(&ratings[i]))
	}
	return &RatingListResponse{Data: data, Total: len(data)}
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// RateItemResponse reports whether the vote counted. Rating and Average are
// null when it was rejected as a duplicate.
type RateItemResponse struct {
	Accepted bool            `json:"accepted"`
	Rating   *RatingResponse `json:"rating"`
	Average  *int            `json:"average"`
}

func NewRateItemResponse(accepted bool, rating *models.Rating) *RateItemResponse {
	resp := &RateItemResponse{Accepted: accepted, Rating: FromModelToRatingResponse(rating)}
	if rating != nil {
		avg := rating.Average
		resp.Average = &avg
	}
	return resp
}

type AjaxResponse struct {
	Result string `json:"result"`
}

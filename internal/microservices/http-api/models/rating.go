package models

import "time"

// Rating is the aggregate of every vote cast for one item of one module.
type Rating struct {
	ID        int64     `json:"id" gorm:"column:rid;primaryKey;autoIncrement"`
	Module    string    `json:"module" gorm:"column:module;type:varchar(64);not null;uniqueIndex:idx_ratings_module_item"`
	ItemID    string    `json:"item_id" gorm:"column:itemid;type:varchar(255);not null;uniqueIndex:idx_ratings_module_item"`
	Average   int       `json:"rating" gorm:"column:rating;not null;check:rating >= 0 AND rating <= 100"`
	Count     int       `json:"num_ratings" gorm:"column:numratings;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}

// Key returns the item this aggregate belongs to.
func (r *Rating) Key() ItemKey {
	return ItemKey{Module: r.Module, ItemID: r.ItemID}
}

// Fold adds one vote to the running average.
//
// The average is recomputed with integer division on every vote, so it drifts
// from the exact mean over long vote sequences. Existing stored averages depend
// on this rounding; keep it until the product owners agree to migrate them.
func (r *Rating) Fold(value int) {
	r.Count++
	r.Average = (r.Average*(r.Count-1) + value) / r.Count
}

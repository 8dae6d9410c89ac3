package models

import "time"

// VoteLog marks that a voter has already rated an item.
type VoteLog struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	VoterKey  string    `json:"voter_key" gorm:"column:userid;type:varchar(255);not null;uniqueIndex:idx_ratingslog_voter_item"`
	Module    string    `json:"module" gorm:"column:module;type:varchar(64);not null;uniqueIndex:idx_ratingslog_voter_item"`
	ItemID    string    `json:"item_id" gorm:"column:itemid;type:varchar(255);not null;uniqueIndex:idx_ratingslog_voter_item"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (VoteLog) TableName() string {
	return "ratingslog"
}

package pkg

import "time"

type Member struct {
	Address         string    `json:"address"`
	Username        string    `json:"username,omitempty"`
	Tier            string    `json:"tier"`
	ReferrerAddress string    `json:"referrer_address,omitempty"`
	Suspended       bool      `json:"suspended"`
	CreatedAt       time.Time `json:"created_at"`
}

func (m Member) HasReferrer() bool {
	return m.ReferrerAddress != ""
}

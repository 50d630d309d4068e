package models

import "time"

// PhotoKind - фото "до" или "после" работ.
type PhotoKind string

const (
	PhotoBefore PhotoKind = "before"
	PhotoAfter  PhotoKind = "after"
)

func (k PhotoKind) Valid() bool {
	return k == PhotoBefore || k == PhotoAfter
}

// Photo - ссылка на сохранённое фото.
type Photo struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServicePhotos содержит фото до и после для выезда.
type ServicePhotos struct {
	ServiceID string `json:"service_id"`
	Before    *Photo `json:"before,omitempty"`
	After     *Photo `json:"after,omitempty"`
}

package inquiries

import (
	"time"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
)

// Inquiry is a stored vendor inquiry.
type Inquiry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contactNumber"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	Requirement   string    `json:"requirement"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newInquiry(id string, d inquiry.Draft, createdAt time.Time) *Inquiry {
	return &Inquiry{
		ID:            id,
		Name:          d.Name,
		ContactNumber: d.ContactNumber,
		Location:      d.Location,
		Category:      d.Category,
		Requirement:   d.Requirement,
		CreatedAt:     createdAt,
	}
}

// ListFilter narrows a listing. An empty Category matches everything.
type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

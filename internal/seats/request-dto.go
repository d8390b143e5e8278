package seats

// ListQuery represents query parameters for the seat listing
type ListQuery struct {
	EventID  int64   `form:"event_id" binding:"required,gt=0"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"pageSize" binding:"omitempty,min=1,max=20"`
	Row      *int    `form:"row" binding:"omitempty,gt=0"`
	Status   *string `form:"status" binding:"omitempty,oneof=FREE RESERVED SOLD"`
}

// Normalize applies the documented defaults and caps.
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 20 {
		q.PageSize = 20
	}
}

// SelectSeatRequest represents the request to add a seat to a booking
type SelectSeatRequest struct {
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
	SeatID    int64 `json:"seat_id" binding:"required,gt=0"`
}

// ReleaseSeatRequest represents the request to release a reserved seat
type ReleaseSeatRequest struct {
	SeatID int64 `json:"seat_id" binding:"required,gt=0"`
}

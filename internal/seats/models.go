package seats

// Seat statuses as stored in the database. SOLD is terminal.
const (
	StatusFree     = "FREE"
	StatusReserved = "RESERVED"
	StatusSold     = "SOLD"

	// StatusSelected is a display-only value surfaced to viewers when a
	// FREE seat carries an active lock. Never written to the database.
	StatusSelected = "SELECTED"

	// legacyAvailable survives in rows migrated from earlier datasets.
	legacyAvailable = "AVAILABLE"
)

type Seat struct {
	ID        int64    `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID   int64    `json:"event_id" gorm:"not null;index"`
	Row       int      `json:"row" gorm:"not null"`
	Number    int      `json:"number" gorm:"not null"`
	Status    string   `json:"status" gorm:"not null;default:'FREE'"`
	BookingID *int64   `json:"booking_id,omitempty" gorm:"index"`
	Category  *string  `json:"category,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

func (Seat) TableName() string { return "seats" }

// NormalizeStatus maps the legacy AVAILABLE value onto FREE. Writes only
// ever produce FREE, so normalization is a read-side concern.
func NormalizeStatus(status string) string {
	if status == legacyAvailable {
		return StatusFree
	}
	return status
}

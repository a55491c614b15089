package entry

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects which HTTP parameter shape is sent on every poll.
type Mode string

const (
	ModeDistrict Mode = "district"
	ModeLocation Mode = "location"
)

// Poll interval bounds in seconds.
const (
	MinIntervalSeconds     = 300
	MaxIntervalSeconds     = 7200
	DefaultIntervalSeconds = 900
)

var (
	// ErrNotFound is returned when no entry exists for an ID.
	ErrNotFound = errors.New("config entry not found")

	// ErrDuplicate is returned when an entry for the same resolved
	// location already exists.
	ErrDuplicate = errors.New("config entry already exists for this location")
)

// Entry is one configured integration instance. The API key and the
// location selector are write-once at setup time; only the poll interval
// may change afterwards.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	APIKey    string    `json:"-"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`

	// District mode fields.
	Province   string `json:"province,omitempty"`
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
	DistrictID string `json:"district_id,omitempty"`

	// Location mode fields.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	LocationName    string `json:"location_name"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// UniqueKey identifies the resolved location of this entry. Two entries
// with the same key are duplicates regardless of title or credential.
func (e *Entry) UniqueKey() string {
	if e.Mode == ModeDistrict {
		return "district:" + e.DistrictID
	}
	return fmt.Sprintf("loc:%f,%f", e.Latitude, e.Longitude)
}

// Interval returns the poll interval as a duration, clamped to the
// documented bounds.
func (e *Entry) Interval() time.Duration {
	secs := e.IntervalSeconds
	if secs < MinIntervalSeconds || secs > MaxIntervalSeconds {
		secs = DefaultIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// ValidateInterval checks a poll interval override against the bounds.
func ValidateInterval(seconds int) error {
	if seconds < MinIntervalSeconds || seconds > MaxIntervalSeconds {
		return fmt.Errorf("interval must be between %d and %d seconds", MinIntervalSeconds, MaxIntervalSeconds)
	}
	return nil
}

// Redacted returns the entry's persisted configuration with the credential
// scrubbed, for diagnostic dumps.
func (e *Entry) Redacted() map[string]interface{} {
	out := map[string]interface{}{
		"id":               e.ID,
		"title":            e.Title,
		"ak":               "**REDACTED**",
		"mode":             string(e.Mode),
		"location_name":    e.LocationName,
		"interval_seconds": e.IntervalSeconds,
		"created_at":       e.CreatedAt,
	}
	if e.Mode == ModeDistrict {
		out["province"] = e.Province
		out["city"] = e.City
		out["district"] = e.District
		out["district_id"] = e.DistrictID
	} else {
		out["latitude"] = e.Latitude
		out["longitude"] = e.Longitude
	}
	return out
}

// Store is the contract the sqlite store (and any future persistent store)
// must satisfy.
type Store interface {
	Save(e Entry) error
	Get(id string) (Entry, error)
	List() ([]Entry, error)
	UpdateInterval(id string, seconds int) error
	Delete(id string) error
	Close() error
}

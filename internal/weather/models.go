package weather

import (
	"time"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
)

// Attribution names the upstream data source.
const Attribution = "数据来源：百度地图天气服务"

// Snapshot is the single shared result of the most recent successful poll.
// It is replaced wholesale on each successful poll and retained unchanged
// across failed polls. The key set is constant regardless of which fields
// the vendor omits; sequences are never nil.
type Snapshot struct {
	Location      baidu.Location         `json:"location"`
	Now           baidu.Now              `json:"now"`
	Forecasts     []baidu.DailyForecast  `json:"forecasts"`
	ForecastHours []baidu.HourlyForecast `json:"forecast_hours"`
	Alerts        []baidu.Alert          `json:"alerts"`
	Indexes       []baidu.LifeIndex      `json:"indexes"`
	FetchedAt     time.Time              `json:"fetched_at"`
}

// newSnapshot reshapes a raw vendor result into the fixed-key envelope.
func newSnapshot(res *baidu.Result, at time.Time) *Snapshot {
	s := &Snapshot{
		Location:      res.Location,
		Now:           res.Now,
		Forecasts:     res.Forecasts,
		ForecastHours: res.ForecastHours,
		Alerts:        res.Alerts,
		Indexes:       res.Indexes,
		FetchedAt:     at.UTC(),
	}
	if s.Forecasts == nil {
		s.Forecasts = []baidu.DailyForecast{}
	}
	if s.ForecastHours == nil {
		s.ForecastHours = []baidu.HourlyForecast{}
	}
	if s.Alerts == nil {
		s.Alerts = []baidu.Alert{}
	}
	if s.Indexes == nil {
		s.Indexes = []baidu.LifeIndex{}
	}
	return s
}

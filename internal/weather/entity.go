package weather

import (
	"fmt"
	"time"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
)

// ForecastDays is the number of per-day forecast sensor views (today plus
// the next four days).
const ForecastDays = 5

// dayLabels index 0 = today.
var dayLabels = []string{"今天", "明天", "后天", "大后天", "第五天"}

// dayKeys are the stable identifiers of the per-day forecast views.
var dayKeys = []string{"forecast_today", "forecast_tomorrow", "forecast_day2", "forecast_day3", "forecast_day4"}

// WeatherView projects current conditions out of a snapshot. It carries no
// state of its own.
type WeatherView struct {
	Available bool `json:"available"`

	Condition   *string `json:"condition"`
	ConditionCN *string `json:"condition_cn"`

	Temperature         *float64 `json:"temperature"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	Humidity            *float64 `json:"humidity"`
	Pressure            *float64 `json:"pressure"`

	WindSpeed     *float64 `json:"wind_speed"`
	WindBearing   *float64 `json:"wind_bearing"`
	WindClass     *string  `json:"wind_class"`
	WindDirection *string  `json:"wind_direction_cn"`

	CloudCoverage   *float64 `json:"cloud_coverage"`
	VisibilityKm    *float64 `json:"visibility_km"`
	Ozone           *float64 `json:"ozone"`
	DewPoint        *float64 `json:"dew_point"`
	UVIndex         *float64 `json:"uv_index"`
	Precipitation1H *float64 `json:"precipitation_1h"`

	AQI  *int     `json:"aqi"`
	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`
	NO2  *float64 `json:"no2"`
	SO2  *float64 `json:"so2"`
	CO   *float64 `json:"co"`

	LifeIndexes []LifeIndexItem `json:"life_indexes"`

	UpdateTime  *string   `json:"update_time"`
	Attribution string    `json:"attribution"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// LifeIndexItem is one lifestyle advisory in the weather view.
type LifeIndexItem struct {
	Name   string `json:"name"`
	Brief  string `json:"brief"`
	Detail string `json:"detail"`
}

// BuildWeatherView projects the snapshot into the weather view. A nil
// snapshot yields an unavailable view with the fixed key set intact.
func BuildWeatherView(snap *Snapshot, available bool) WeatherView {
	v := WeatherView{
		Available:   available,
		Attribution: Attribution,
		LifeIndexes: make([]LifeIndexItem, 0),
	}
	if snap == nil {
		return v
	}

	now := snap.Now
	v.FetchedAt = snap.FetchedAt

	if now.Text != nil {
		cond := string(baidu.NormalizeCondition(*now.Text))
		v.Condition = &cond
		v.ConditionCN = now.Text
	}

	v.Temperature = now.Temp
	v.ApparentTemperature = now.FeelsLike
	v.Humidity = now.RH
	v.Pressure = now.Pressure

	if now.WindClass != nil {
		v.WindClass = now.WindClass
		if speed, ok := baidu.WindSpeed(*now.WindClass); ok {
			v.WindSpeed = &speed
		}
	}
	v.WindBearing = windBearing(now.WindDir, now.WindAngle)
	v.WindDirection = now.WindDir

	v.CloudCoverage = now.Clouds
	if now.Vis != nil {
		// vendor reports meters
		km := *now.Vis / 1000.0
		v.VisibilityKm = &km
	}
	v.Ozone = now.O3
	v.DewPoint = now.DewPoint
	v.UVIndex = now.UVIndex
	v.Precipitation1H = now.Prec1H

	v.AQI = now.AQI
	v.PM25 = now.PM25
	v.PM10 = now.PM10
	v.NO2 = now.NO2
	v.SO2 = now.SO2
	v.CO = now.CO
	v.UpdateTime = now.Uptime

	for _, idx := range snap.Indexes {
		v.LifeIndexes = append(v.LifeIndexes, LifeIndexItem{
			Name:   orDefault(idx.Name, ""),
			Brief:  orDefault(idx.Brief, ""),
			Detail: orDefault(idx.Detail, ""),
		})
	}

	return v
}

// DailyForecastEntry is one normalized day of the daily forecast view.
type DailyForecastEntry struct {
	Datetime       string   `json:"datetime"`
	Condition      *string  `json:"condition"`
	ConditionDay   *string  `json:"condition_day"`
	ConditionNight *string  `json:"condition_night"`
	TempHigh       *int     `json:"temperature"`
	TempLow        *int     `json:"templow"`
	WindSpeed      *float64 `json:"wind_speed"`
	WindBearing    *float64 `json:"wind_bearing"`
}

// BuildDailyForecast projects the ordered daily forecast sequence.
func BuildDailyForecast(snap *Snapshot) []DailyForecastEntry {
	out := make([]DailyForecastEntry, 0)
	if snap == nil {
		return out
	}

	for _, fc := range snap.Forecasts {
		if fc.Date == nil {
			continue
		}

		e := DailyForecastEntry{
			Datetime:       forecastDate(*fc.Date),
			ConditionDay:   fc.TextDay,
			ConditionNight: fc.TextNight,
			TempHigh:       fc.High,
			TempLow:        fc.Low,
		}
		if fc.TextDay != nil {
			cond := string(baidu.NormalizeCondition(*fc.TextDay))
			e.Condition = &cond
		}
		if fc.WcDay != nil {
			if speed, ok := baidu.WindSpeed(*fc.WcDay); ok {
				e.WindSpeed = &speed
			}
		}
		e.WindBearing = windBearing(fc.WdDay, nil)
		out = append(out, e)
	}
	return out
}

// HourlyForecastEntry is one normalized hour of the hourly forecast view.
type HourlyForecastEntry struct {
	Datetime          string   `json:"datetime"`
	Condition         *string  `json:"condition"`
	Temperature       *float64 `json:"temperature"`
	Humidity          *float64 `json:"humidity"`
	CloudCoverage     *float64 `json:"cloud_coverage"`
	Precipitation     *float64 `json:"precipitation"`
	PrecipProbability *float64 `json:"precipitation_probability"`
	WindSpeed         *float64 `json:"wind_speed"`
	WindBearing       *float64 `json:"wind_bearing"`
	UVIndex           *float64 `json:"uv_index"`
	Pressure          *float64 `json:"pressure"`
	DewPoint          *float64 `json:"dew_point"`
}

// BuildHourlyForecast projects the ordered hourly forecast sequence.
func BuildHourlyForecast(snap *Snapshot) []HourlyForecastEntry {
	out := make([]HourlyForecastEntry, 0)
	if snap == nil {
		return out
	}

	for _, h := range snap.ForecastHours {
		if h.DataTime == nil {
			continue
		}

		e := HourlyForecastEntry{
			Datetime:          forecastHour(*h.DataTime),
			Temperature:       h.TempFC,
			Humidity:          h.RH,
			CloudCoverage:     h.Clouds,
			Precipitation:     h.Prec1H,
			PrecipProbability: h.Pop,
			UVIndex:           h.UVIndex,
			Pressure:          h.Pressure,
			DewPoint:          h.DewPoint,
		}
		if h.Text != nil {
			cond := string(baidu.NormalizeCondition(*h.Text))
			e.Condition = &cond
		}
		if h.WindClass != nil {
			if speed, ok := baidu.WindSpeed(*h.WindClass); ok {
				e.WindSpeed = &speed
			}
		}
		e.WindBearing = windBearing(h.WindDir, h.WindAngle)
		out = append(out, e)
	}
	return out
}

// AlertDetail is one active alert in the alert sensor view.
type AlertDetail struct {
	Type        string `json:"type"`
	Level       string `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AlertView is the weather-alert sensor projection. State reads "无预警"
// when no alert is active, "N条预警" otherwise.
type AlertView struct {
	Available bool          `json:"available"`
	State     string        `json:"state"`
	Count     int           `json:"alert_count"`
	Alerts    []AlertDetail `json:"alerts"`
}

// BuildAlertView projects the alert sequence.
func BuildAlertView(snap *Snapshot, available bool) AlertView {
	v := AlertView{Available: available, State: "无预警", Alerts: make([]AlertDetail, 0)}
	if snap == nil {
		return v
	}

	for _, a := range snap.Alerts {
		v.Alerts = append(v.Alerts, AlertDetail{
			Type:        orDefault(a.Type, "未知"),
			Level:       orDefault(a.Level, "未知"),
			Title:       orDefault(a.Title, ""),
			Description: orDefault(a.Desc, ""),
		})
	}
	v.Count = len(v.Alerts)
	if v.Count > 0 {
		v.State = fmt.Sprintf("%d条预警", v.Count)
	}
	return v
}

// AirQualityView is the AQI sensor projection.
type AirQualityView struct {
	Available bool     `json:"available"`
	AQI       *int     `json:"aqi"`
	Level     *string  `json:"aqi_level"`
	PM25      *float64 `json:"pm25"`
	PM10      *float64 `json:"pm10"`
	NO2       *float64 `json:"no2"`
	SO2       *float64 `json:"so2"`
	O3        *float64 `json:"o3"`
	CO        *float64 `json:"co"`
}

// BuildAirQualityView projects the air quality readings.
func BuildAirQualityView(snap *Snapshot, available bool) AirQualityView {
	v := AirQualityView{Available: available}
	if snap == nil {
		return v
	}

	now := snap.Now
	v.AQI = now.AQI
	if now.AQI != nil {
		level := baidu.AQILevel(*now.AQI)
		v.Level = &level
	}
	v.PM25 = now.PM25
	v.PM10 = now.PM10
	v.NO2 = now.NO2
	v.SO2 = now.SO2
	v.O3 = now.O3
	v.CO = now.CO
	return v
}

// DayForecastView is the per-day forecast sensor projection. State is a
// human-readable summary like "晴转多云 12~20°C".
type DayForecastView struct {
	Available bool    `json:"available"`
	Key       string  `json:"key"`
	DayLabel  string  `json:"day_label"`
	State     *string `json:"state"`

	Date           *string `json:"date"`
	ConditionDay   *string `json:"condition_day"`
	ConditionNight *string `json:"condition_night"`
	TempHigh       *int    `json:"temperature_high"`
	TempLow        *int    `json:"temperature_low"`
	WindClassDay   *string `json:"wind_class_day"`
	WindClassNight *string `json:"wind_class_night"`
	WindDirDay     *string `json:"wind_direction_day"`
	WindDirNight   *string `json:"wind_direction_night"`
}

// BuildDayForecastView projects forecast day dayIndex (0 = today). Days
// beyond the snapshot's forecast horizon yield a view without state.
func BuildDayForecastView(snap *Snapshot, available bool, dayIndex int) DayForecastView {
	v := DayForecastView{Available: available}
	if dayIndex < 0 || dayIndex >= ForecastDays {
		return v
	}
	v.Key = dayKeys[dayIndex]
	v.DayLabel = dayLabels[dayIndex]

	if snap == nil || dayIndex >= len(snap.Forecasts) {
		return v
	}

	fc := snap.Forecasts[dayIndex]
	v.Date = fc.Date
	v.ConditionDay = fc.TextDay
	v.ConditionNight = fc.TextNight
	v.TempHigh = fc.High
	v.TempLow = fc.Low
	v.WindClassDay = fc.WcDay
	v.WindClassNight = fc.WcNight
	v.WindDirDay = fc.WdDay
	v.WindDirNight = fc.WdNight

	state := daySummary(fc)
	v.State = &state
	return v
}

// daySummary renders the readable day summary ("多云 12~20°C").
func daySummary(fc baidu.DailyForecast) string {
	day := orDefault(fc.TextDay, "")
	night := orDefault(fc.TextNight, "")

	var condition string
	switch {
	case day != "" && night != "" && day != night:
		condition = fmt.Sprintf("%s转%s", day, night)
	case day != "":
		condition = day
	case night != "":
		condition = night
	default:
		condition = "未知"
	}

	var temp string
	switch {
	case fc.Low != nil && fc.High != nil:
		temp = fmt.Sprintf("%d~%d°C", *fc.Low, *fc.High)
	case fc.High != nil:
		temp = fmt.Sprintf("最高%d°C", *fc.High)
	case fc.Low != nil:
		temp = fmt.Sprintf("最低%d°C", *fc.Low)
	}

	if temp == "" {
		return condition
	}
	return fmt.Sprintf("%s %s", condition, temp)
}

// windBearing resolves a bearing from the numeric angle when present,
// falling back to the direction table. Unmapped labels yield no value and
// callers pass the raw label through separately.
func windBearing(dir *string, angle *float64) *float64 {
	if angle != nil {
		return angle
	}
	if dir == nil {
		return nil
	}
	if b, ok := baidu.WindBearing(*dir); ok {
		return &b
	}
	return nil
}

// forecastDate renders a vendor date ("2024-01-01") as RFC3339 at +08:00.
// Unparseable input passes through unchanged.
func forecastDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("2006-01-02") + "T00:00:00+08:00"
}

// forecastHour renders a vendor timestamp ("2024-01-01 12:00") as RFC3339
// at +08:00. Unparseable input passes through unchanged.
func forecastHour(dataTime string) string {
	t, err := time.Parse("2006-01-02 15:04", dataTime)
	if err != nil {
		return dataTime
	}
	return t.Format("2006-01-02T15:04:05") + "+08:00"
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

package baidu

// Result is the payload of a successful weather request. The key set is
// fixed; fields the vendor omitted or reported as abnormal are nil.
type Result struct {
	Location      Location         `json:"location"`
	Now           Now              `json:"now"`
	Forecasts     []DailyForecast  `json:"forecasts"`
	ForecastHours []HourlyForecast `json:"forecast_hours"`
	Alerts        []Alert          `json:"alerts"`
	Indexes       []LifeIndex      `json:"indexes"`
}

// Location identifies the administrative region the readings belong to.
type Location struct {
	Country  *string `json:"country"`
	Province *string `json:"province"`
	City     *string `json:"city"`
	Name     *string `json:"name"`
	ID       *string `json:"id"`
}

// Now holds current conditions plus air quality readings.
type Now struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	RH        *float64 `json:"rh"`
	WindClass *string  `json:"wind_class"`
	WindDir   *string  `json:"wind_dir"`
	WindAngle *float64 `json:"wind_angle"`
	Text      *string  `json:"text"`
	Prec1H    *float64 `json:"prec_1h"`
	Clouds    *float64 `json:"clouds"`
	Vis       *float64 `json:"vis"`
	DewPoint  *float64 `json:"dpt"`
	UVIndex   *float64 `json:"uvi"`
	Pressure  *float64 `json:"pressure"`
	AQI       *int     `json:"aqi"`
	PM25      *float64 `json:"pm25"`
	PM10      *float64 `json:"pm10"`
	NO2       *float64 `json:"no2"`
	SO2       *float64 `json:"so2"`
	O3        *float64 `json:"o3"`
	CO        *float64 `json:"co"`
	Uptime    *string  `json:"uptime"`
}

// DailyForecast is one day of the daily forecast sequence.
type DailyForecast struct {
	Date      *string `json:"date"`
	Week      *string `json:"week"`
	High      *int    `json:"high"`
	Low       *int    `json:"low"`
	WcDay     *string `json:"wc_day"`
	WcNight   *string `json:"wc_night"`
	WdDay     *string `json:"wd_day"`
	WdNight   *string `json:"wd_night"`
	TextDay   *string `json:"text_day"`
	TextNight *string `json:"text_night"`
}

// HourlyForecast is one hour of the hourly forecast sequence.
type HourlyForecast struct {
	DataTime  *string  `json:"data_time"`
	Text      *string  `json:"text"`
	TempFC    *float64 `json:"temp_fc"`
	RH        *float64 `json:"rh"`
	WindClass *string  `json:"wind_class"`
	WindDir   *string  `json:"wind_dir"`
	WindAngle *float64 `json:"wind_angle"`
	Prec1H    *float64 `json:"prec_1h"`
	Clouds    *float64 `json:"clouds"`
	Pop       *float64 `json:"pop"`
	UVIndex   *float64 `json:"uvi"`
	Pressure  *float64 `json:"pressure"`
	DewPoint  *float64 `json:"dpt"`
}

// Alert is one active weather alert.
type Alert struct {
	Type  *string `json:"type"`
	Level *string `json:"level"`
	Title *string `json:"title"`
	Desc  *string `json:"desc"`
}

// LifeIndex is one lifestyle advisory entry.
type LifeIndex struct {
	Name   *string `json:"name"`
	Brief  *string `json:"brief"`
	Detail *string `json:"detail"`
}

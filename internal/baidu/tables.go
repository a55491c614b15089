package baidu

// Condition is a normalized weather condition.
type Condition string

const (
	ConditionSunny          Condition = "sunny"
	ConditionPartlyCloudy   Condition = "partlycloudy"
	ConditionCloudy         Condition = "cloudy"
	ConditionRainy          Condition = "rainy"
	ConditionPouring        Condition = "pouring"
	ConditionLightningRainy Condition = "lightning-rainy"
	ConditionHail           Condition = "hail"
	ConditionSnowy          Condition = "snowy"
	ConditionSnowyRainy     Condition = "snowy-rainy"
	ConditionFog            Condition = "fog"
	ConditionExceptional    Condition = "exceptional"
)

// conditionTable maps the vendor's condition text to normalized conditions.
var conditionTable = map[string]Condition{
	"晴":        ConditionSunny,
	"多云":       ConditionPartlyCloudy,
	"阴":        ConditionCloudy,
	"阵雨":       ConditionRainy,
	"雷阵雨":      ConditionLightningRainy,
	"雷阵雨伴有冰雹":  ConditionHail,
	"雨夹雪":      ConditionSnowyRainy,
	"小雨":       ConditionRainy,
	"中雨":       ConditionRainy,
	"大雨":       ConditionPouring,
	"暴雨":       ConditionPouring,
	"大暴雨":      ConditionPouring,
	"特大暴雨":     ConditionPouring,
	"阵雪":       ConditionSnowy,
	"小雪":       ConditionSnowy,
	"中雪":       ConditionSnowy,
	"大雪":       ConditionSnowy,
	"暴雪":       ConditionSnowy,
	"雾":        ConditionFog,
	"冻雨":       ConditionSnowyRainy,
	"沙尘暴":      ConditionExceptional,
	"小到中雨":     ConditionRainy,
	"中到大雨":     ConditionRainy,
	"大到暴雨":     ConditionPouring,
	"暴雨到大暴雨":   ConditionPouring,
	"大暴雨到特大暴雨": ConditionPouring,
	"小到中雪":     ConditionSnowy,
	"中到大雪":     ConditionSnowy,
	"大到暴雪":     ConditionSnowy,
	"浮尘":       ConditionExceptional,
	"扬沙":       ConditionExceptional,
	"强沙尘暴":     ConditionExceptional,
	"霾":        ConditionFog,
	"小雨-中雨":    ConditionRainy,
	"中雨-大雨":    ConditionRainy,
	"大雨-暴雨":    ConditionPouring,
	"暴雨-大暴雨":   ConditionPouring,
	"大暴雨-特大暴雨": ConditionPouring,
	"小雪-中雪":    ConditionSnowy,
	"中雪-大雪":    ConditionSnowy,
	"大雪-暴雪":    ConditionSnowy,
}

// windSpeedTable maps the vendor's wind class label to an approximate
// speed in km/h (midpoint of the class).
var windSpeedTable = map[string]float64{
	"微风":  5.0,
	"和风":  15.0,
	"清风":  25.0,
	"<3级": 9.0,
	"1级":  2.0,
	"2级":  7.0,
	"3级":  14.0,
	"4级":  22.0,
	"5级":  32.0,
	"6级":  42.0,
	"7级":  54.0,
	"8级":  67.0,
	"9级":  81.0,
	"10级": 96.0,
	"11级": 112.0,
	"12级": 130.0,
}

// windBearingTable maps the vendor's wind direction label to a compass
// bearing in degrees.
var windBearingTable = map[string]float64{
	"北风":  0.0,
	"东北风": 45.0,
	"东风":  90.0,
	"东南风": 135.0,
	"南风":  180.0,
	"西南风": 225.0,
	"西风":  270.0,
	"西北风": 315.0,
}

// NormalizeCondition translates the vendor condition text. Unlisted labels
// map to the generic exceptional condition.
func NormalizeCondition(text string) Condition {
	if c, ok := conditionTable[text]; ok {
		return c
	}
	return ConditionExceptional
}

// WindSpeed translates a wind class label into an approximate speed in
// km/h. Unmapped labels yield no value.
func WindSpeed(windClass string) (float64, bool) {
	v, ok := windSpeedTable[windClass]
	return v, ok
}

// WindBearing translates a wind direction label into a compass bearing.
// Unmapped labels yield no value; callers fall back to the raw label.
func WindBearing(windDir string) (float64, bool) {
	v, ok := windBearingTable[windDir]
	return v, ok
}

// ConditionLabels returns every vendor condition label in the fixed table.
func ConditionLabels() []string {
	out := make([]string, 0, len(conditionTable))
	for k := range conditionTable {
		out = append(out, k)
	}
	return out
}

// AQILevel bands an air quality index value into the vendor's level
// description.
func AQILevel(aqi int) string {
	switch {
	case aqi <= 50:
		return "优"
	case aqi <= 100:
		return "良"
	case aqi <= 150:
		return "轻度污染"
	case aqi <= 200:
		return "中度污染"
	case aqi <= 300:
		return "重度污染"
	default:
		return "严重污染"
	}
}

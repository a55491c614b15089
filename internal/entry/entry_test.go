package entry

import (
	"testing"
	"time"
)

func TestUniqueKey(t *testing.T) {
	d := Entry{Mode: ModeDistrict, DistrictID: "110108"}
	if d.UniqueKey() != "district:110108" {
		t.Fatalf("key = %q", d.UniqueKey())
	}

	l := Entry{Mode: ModeLocation, Latitude: 39.915, Longitude: 116.404}
	same := Entry{Mode: ModeLocation, Latitude: 39.915, Longitude: 116.404, Title: "other"}
	if l.UniqueKey() != same.UniqueKey() {
		t.Fatal("identical coordinates must share a key")
	}
	if l.UniqueKey() == d.UniqueKey() {
		t.Fatal("modes must not collide")
	}
}

func TestIntervalClampsOutOfBounds(t *testing.T) {
	cases := []struct {
		seconds int
		want    time.Duration
	}{
		{900, 15 * time.Minute},
		{300, 5 * time.Minute},
		{7200, 2 * time.Hour},
		{0, 15 * time.Minute},
		{60, 15 * time.Minute},
		{10000, 15 * time.Minute},
	}
	for _, tc := range cases {
		e := Entry{IntervalSeconds: tc.seconds}
		if got := e.Interval(); got != tc.want {
			t.Fatalf("Interval(%d) = %v, want %v", tc.seconds, got, tc.want)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	for _, ok := range []int{300, 900, 7200} {
		if err := ValidateInterval(ok); err != nil {
			t.Fatalf("ValidateInterval(%d) = %v", ok, err)
		}
	}
	for _, bad := range []int{0, 299, 7201, -1} {
		if err := ValidateInterval(bad); err == nil {
			t.Fatalf("ValidateInterval(%d) accepted", bad)
		}
	}
}

func TestRedacted(t *testing.T) {
	e := Entry{
		ID:         "abc",
		APIKey:     "secret-ak",
		Mode:       ModeDistrict,
		Province:   "北京市",
		City:       "北京市",
		District:   "海淀区",
		DistrictID: "110108",
	}

	out := e.Redacted()
	if out["ak"] != "**REDACTED**" {
		t.Fatalf("ak = %v", out["ak"])
	}
	for k, v := range out {
		if s, ok := v.(string); ok && s == "secret-ak" {
			t.Fatalf("credential leaked under %q", k)
		}
	}
	if out["district_id"] != "110108" {
		t.Fatalf("district_id = %v", out["district_id"])
	}
	if _, present := out["latitude"]; present {
		t.Fatal("district entries must not expose coordinates")
	}
}

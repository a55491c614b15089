package weather

import (
	"context"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
)

// Source abstracts one configured poll target (district or coordinates).
type Source interface {
	Observe(ctx context.Context) (*baidu.Result, error)
}

type districtSource struct {
	client     *baidu.Client
	districtID string
}

// NewDistrictSource polls the API by administrative district ID.
func NewDistrictSource(client *baidu.Client, districtID string) Source {
	return &districtSource{client: client, districtID: districtID}
}

func (s *districtSource) Observe(ctx context.Context) (*baidu.Result, error) {
	return s.client.FetchByDistrict(ctx, s.districtID, baidu.DataTypeAll)
}

type locationSource struct {
	client   *baidu.Client
	lat, lon float64
}

// NewLocationSource polls the API by coordinate pair.
func NewLocationSource(client *baidu.Client, latitude, longitude float64) Source {
	return &locationSource{client: client, lat: latitude, lon: longitude}
}

func (s *locationSource) Observe(ctx context.Context) (*baidu.Result, error) {
	return s.client.FetchByLocation(ctx, s.lon, s.lat, baidu.DataTypeAll)
}

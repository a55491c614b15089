package baidu

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

//go:embed weather_district_id.csv
var districtCSV string

// DistrictIndex maps administrative region names to vendor district IDs.
// It is loaded once from the packaged flat file and read-only thereafter.
type DistrictIndex struct {
	// province -> city -> district -> district_id
	regions map[string]map[string]map[string]string
}

// LoadDistricts parses the packaged district table.
func LoadDistricts() (*DistrictIndex, error) {
	return parseDistricts(strings.NewReader(districtCSV))
}

// parseDistricts reads rows of the form
// district_id,province,city,city_geocode,district,district_geocode,lon,lat.
// Rows with missing id, province, or district are skipped.
func parseDistricts(r io.Reader) (*DistrictIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse district table: %w", err)
	}

	idx := &DistrictIndex{regions: make(map[string]map[string]map[string]string)}
	for i, row := range records {
		if i == 0 {
			// header
			continue
		}
		if len(row) < 5 {
			continue
		}

		id := strings.TrimSpace(row[0])
		province := strings.TrimSpace(row[1])
		city := strings.TrimSpace(row[2])
		district := strings.TrimSpace(row[4])
		if id == "" || province == "" || district == "" {
			continue
		}

		cities, ok := idx.regions[province]
		if !ok {
			cities = make(map[string]map[string]string)
			idx.regions[province] = cities
		}
		districts, ok := cities[city]
		if !ok {
			districts = make(map[string]string)
			cities[city] = districts
		}
		districts[district] = id
	}

	if len(idx.regions) == 0 {
		return nil, fmt.Errorf("district table is empty")
	}
	return idx, nil
}

// Lookup resolves a (province, city, district) triple to a district ID.
func (d *DistrictIndex) Lookup(province, city, district string) (string, bool) {
	id, ok := d.regions[province][city][district]
	return id, ok
}

// Provinces returns all province names, sorted.
func (d *DistrictIndex) Provinces() []string {
	out := make([]string, 0, len(d.regions))
	for p := range d.regions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Cities returns the city names of a province, sorted.
func (d *DistrictIndex) Cities(province string) []string {
	cities := d.regions[province]
	out := make([]string, 0, len(cities))
	for c := range cities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Districts returns the district names of a city, sorted.
func (d *DistrictIndex) Districts(province, city string) []string {
	districts := d.regions[province][city]
	out := make([]string, 0, len(districts))
	for name := range districts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
	"github.com/xyzmos/hass-weather-baidu/internal/entry"
	"github.com/xyzmos/hass-weather-baidu/internal/weather"
)

var (
	// ErrInvalidKey is returned when the probe call rejects the API key.
	ErrInvalidKey = errors.New("api key rejected by vendor")

	// ErrUnknownDistrict is returned when a (province, city, district)
	// triple has no entry in the reference table.
	ErrUnknownDistrict = errors.New("unknown district selection")

	// ErrInvalidLocation is returned for an unusable location selection.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNotReady wraps a non-auth first-refresh failure: the entry was
	// not created, but the problem is retryable later.
	ErrNotReady = errors.New("initial weather refresh failed")
)

// DistrictRequest is the district branch of the wizard.
type DistrictRequest struct {
	AK              string
	Province        string
	City            string
	District        string
	IntervalSeconds int
}

// LocationRequest is the location branch of the wizard. Zone selects a
// named zone, ZoneHome, or ZoneManual with explicit coordinates.
type LocationRequest struct {
	AK              string
	Zone            string
	Name            string
	Latitude        *float64
	Longitude       *float64
	IntervalSeconds int
}

// Service drives the setup wizard and owns the running coordinators.
type Service struct {
	log       *logrus.Logger
	store     entry.Store
	districts *baidu.DistrictIndex
	home      Zone
	zones     []Zone

	// ClientFactory builds a vendor client per API key. Tests swap it.
	ClientFactory func(ak string) *baidu.Client

	mu           sync.Mutex
	coordinators map[string]*weather.Coordinator
}

// New creates the setup service.
func New(log *logrus.Logger, store entry.Store, districts *baidu.DistrictIndex, httpClient *http.Client, home Zone, zones []Zone) *Service {
	return &Service{
		log:       log,
		store:     store,
		districts: districts,
		home:      home,
		zones:     zones,
		ClientFactory: func(ak string) *baidu.Client {
			return baidu.NewClient(httpClient, ak)
		},
		coordinators: make(map[string]*weather.Coordinator),
	}
}

// Boot restores persisted entries and restarts their coordinators. A
// failed refresh at boot is transient: polling starts regardless.
func (s *Service) Boot(ctx context.Context) error {
	entries, err := s.store.List()
	if err != nil {
		return fmt.Errorf("load config entries: %w", err)
	}

	for _, e := range entries {
		coord := s.newCoordinator(e)
		if err := coord.FirstRefresh(ctx); err != nil {
			s.log.WithFields(logrus.Fields{"entry_id": e.ID, "location": e.LocationName}).
				WithError(err).Warn("boot refresh failed; polling continues")
		}
		if err := coord.Start(); err != nil {
			return fmt.Errorf("start coordinator for %s: %w", e.ID, err)
		}

		s.mu.Lock()
		s.coordinators[e.ID] = coord
		s.mu.Unlock()
	}
	return nil
}

// Shutdown stops every running coordinator.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coord := range s.coordinators {
		coord.Stop()
	}
	s.coordinators = make(map[string]*weather.Coordinator)
}

// ValidateKey probes the vendor with the given key.
func (s *Service) ValidateKey(ctx context.Context, ak string) (bool, error) {
	return s.ClientFactory(ak).ValidateKey(ctx)
}

// Provinces lists the reference table's provinces.
func (s *Service) Provinces() []string { return s.districts.Provinces() }

// Cities lists the cities of a province.
func (s *Service) Cities(province string) []string { return s.districts.Cities(province) }

// Districts lists the districts of a city.
func (s *Service) Districts(province, city string) []string {
	return s.districts.Districts(province, city)
}

// Zones lists the selectable zones, home position first.
func (s *Service) Zones() []Zone {
	home := s.home
	home.Name = "Home"
	return append([]Zone{home}, s.zones...)
}

// CreateDistrict runs the district branch of the wizard end to end.
func (s *Service) CreateDistrict(ctx context.Context, req DistrictRequest) (entry.Entry, error) {
	districtID, ok := s.districts.Lookup(req.Province, req.City, req.District)
	if !ok {
		return entry.Entry{}, ErrUnknownDistrict
	}

	interval, err := resolveInterval(req.IntervalSeconds)
	if err != nil {
		return entry.Entry{}, err
	}

	e := entry.Entry{
		ID:              uuid.NewString(),
		Title:           fmt.Sprintf("%s %s %s", req.Province, req.City, req.District),
		APIKey:          req.AK,
		Mode:            entry.ModeDistrict,
		Province:        req.Province,
		City:            req.City,
		District:        req.District,
		DistrictID:      districtID,
		LocationName:    req.City + req.District,
		IntervalSeconds: interval,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.checkDuplicate(e); err != nil {
		return entry.Entry{}, err
	}

	valid, err := s.ValidateKey(ctx, req.AK)
	if err != nil {
		return entry.Entry{}, err
	}
	if !valid {
		return entry.Entry{}, ErrInvalidKey
	}

	return s.commission(ctx, e)
}

// CreateLocation runs the location branch of the wizard end to end.
func (s *Service) CreateLocation(ctx context.Context, req LocationRequest) (entry.Entry, error) {
	name, lat, lon, err := s.resolveZone(req)
	if err != nil {
		return entry.Entry{}, err
	}
	if lat == 0 && lon == 0 {
		return entry.Entry{}, ErrInvalidLocation
	}

	interval, err := resolveInterval(req.IntervalSeconds)
	if err != nil {
		return entry.Entry{}, err
	}

	e := entry.Entry{
		ID:              uuid.NewString(),
		Title:           "百度天气 - " + name,
		APIKey:          req.AK,
		Mode:            entry.ModeLocation,
		Latitude:        lat,
		Longitude:       lon,
		LocationName:    name,
		IntervalSeconds: interval,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.checkDuplicate(e); err != nil {
		return entry.Entry{}, err
	}

	// Reachability probe before committing anything.
	client := s.ClientFactory(req.AK)
	if _, err := client.FetchByLocation(ctx, lon, lat, baidu.DataTypeNow); err != nil {
		return entry.Entry{}, err
	}

	return s.commission(ctx, e)
}

// commission persists the entry, performs the mandatory first refresh, and
// starts polling. Auth failure is permanent and surfaces as-is; every
// other failure wraps ErrNotReady.
func (s *Service) commission(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	coord := s.newCoordinator(e)
	if err := coord.FirstRefresh(ctx); err != nil {
		if baidu.IsAuthError(err) {
			return entry.Entry{}, err
		}
		return entry.Entry{}, fmt.Errorf("%w: %v", ErrNotReady, err)
	}

	if err := s.store.Save(e); err != nil {
		return entry.Entry{}, err
	}
	if err := coord.Start(); err != nil {
		return entry.Entry{}, err
	}

	s.mu.Lock()
	s.coordinators[e.ID] = coord
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"entry_id": e.ID, "location": e.LocationName}).
		Info("config entry created")
	return e, nil
}

// Entries lists the configured entries.
func (s *Service) Entries() ([]entry.Entry, error) { return s.store.List() }

// Entry returns one configured entry.
func (s *Service) Entry(id string) (entry.Entry, error) { return s.store.Get(id) }

// Coordinator returns the running coordinator of an entry.
func (s *Service) Coordinator(id string) (*weather.Coordinator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coord, ok := s.coordinators[id]
	return coord, ok
}

// UpdateInterval applies a poll-interval override within the documented
// bounds and reschedules the running coordinator.
func (s *Service) UpdateInterval(id string, seconds int) error {
	if err := entry.ValidateInterval(seconds); err != nil {
		return err
	}
	if err := s.store.UpdateInterval(id, seconds); err != nil {
		return err
	}
	if coord, ok := s.Coordinator(id); ok {
		return coord.Reschedule(time.Duration(seconds) * time.Second)
	}
	return nil
}

// Delete tears an entry down: polling stops and the configuration is
// removed.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	if coord, ok := s.coordinators[id]; ok {
		coord.Stop()
		delete(s.coordinators, id)
	}
	s.mu.Unlock()

	return s.store.Delete(id)
}

// Diagnostics returns a credential-redacted dump of an entry and its
// coordinator state.
func (s *Service) Diagnostics(id string) (map[string]interface{}, error) {
	e, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"config_entry_data": e.Redacted(),
	}
	if coord, ok := s.Coordinator(id); ok {
		snap, available := coord.Snapshot()
		out["available"] = available
		out["needs_reauth"] = coord.NeedsReauth()
		out["coordinator_data"] = snap
		if lastErr := coord.LastError(); lastErr != nil {
			out["last_error"] = lastErr.Error()
		}
	}
	return out, nil
}

func (s *Service) newCoordinator(e entry.Entry) *weather.Coordinator {
	client := s.ClientFactory(e.APIKey)

	var source weather.Source
	if e.Mode == entry.ModeDistrict {
		source = weather.NewDistrictSource(client, e.DistrictID)
	} else {
		source = weather.NewLocationSource(client, e.Latitude, e.Longitude)
	}

	log := s.log.WithFields(logrus.Fields{"entry_id": e.ID, "location": e.LocationName})
	return weather.NewCoordinator(log, source, e.Interval())
}

// checkDuplicate rejects a second entry for the same resolved location.
// The sqlite unique constraint backs this up at save time.
func (s *Service) checkDuplicate(e entry.Entry) error {
	entries, err := s.store.List()
	if err != nil {
		return err
	}
	key := e.UniqueKey()
	for i := range entries {
		if entries[i].UniqueKey() == key {
			return entry.ErrDuplicate
		}
	}
	return nil
}

func (s *Service) resolveZone(req LocationRequest) (string, float64, float64, error) {
	switch req.Zone {
	case ZoneHome, "":
		return "Home", s.home.Latitude, s.home.Longitude, nil
	case ZoneManual:
		if req.Latitude == nil || req.Longitude == nil {
			return "", 0, 0, ErrInvalidLocation
		}
		name := req.Name
		if name == "" {
			name = DefaultManualName
		}
		return name, *req.Latitude, *req.Longitude, nil
	default:
		for _, z := range s.zones {
			if z.Name == req.Zone {
				return z.Name, z.Latitude, z.Longitude, nil
			}
		}
		return "", 0, 0, ErrInvalidLocation
	}
}

// resolveInterval applies the default for an omitted override and enforces
// the documented bounds otherwise.
func resolveInterval(seconds int) (int, error) {
	if seconds == 0 {
		return entry.DefaultIntervalSeconds, nil
	}
	if err := entry.ValidateInterval(seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

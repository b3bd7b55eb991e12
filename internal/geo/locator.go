package geo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
)

const liveKey = "riders:live"

// LivePosition is a rider coordinate read back from the Redis GEO set.
type LivePosition struct {
	RiderID int64
	Lat     float64
	Lng     float64
}

// RiderLocator keeps the latest rider coordinates in a Redis GEO set so the
// dispatcher console can read live positions without touching PostgreSQL.
type RiderLocator struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRiderLocator(rdb *redis.Client, logger *slog.Logger) *RiderLocator {
	return &RiderLocator{rdb: rdb, logger: logger}
}

func memberName(riderID int64) string {
	return fmt.Sprintf("rider:%d", riderID)
}

func parseRiderMember(member string) (int64, error) {
	parts := strings.Split(member, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid member %q", member)
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

// ValidateCoordinates rejects out-of-range and near-zero coordinates. GPS
// hardware occasionally reports (0, 0) before the first fix.
func ValidateCoordinates(lat, lng float64) error {
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: lat=%.8f lng=%.8f", domainErrors.ErrInvalidCoordinates, lat, lng)
	}
	if math.Abs(lng) < 1e-4 && math.Abs(lat) < 1e-4 {
		return fmt.Errorf("%w: near-zero lat=%.8f lng=%.8f", domainErrors.ErrInvalidCoordinates, lat, lng)
	}
	return nil
}

// Update validates input and stores the rider position.
func (l *RiderLocator) Update(ctx context.Context, riderID int64, lat, lng float64) error {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return err
	}
	err := l.rdb.GeoAdd(ctx, liveKey, &redis.GeoLocation{
		Name:      memberName(riderID),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd: %w", err)
	}
	l.logger.Debug("rider position updated", "rider_id", riderID, "lat", lat, "lng", lng)
	return nil
}

// Last returns the rider's live position or ErrNotFound when the rider has
// never reported one.
func (l *RiderLocator) Last(ctx context.Context, riderID int64) (*LivePosition, error) {
	pos, err := l.rdb.GeoPos(ctx, liveKey, memberName(riderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("geopos: %w", err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, domainErrors.ErrNotFound
	}
	return &LivePosition{RiderID: riderID, Lat: pos[0].Latitude, Lng: pos[0].Longitude}, nil
}

// Remove drops the rider from the live set, e.g. on logout.
func (l *RiderLocator) Remove(ctx context.Context, riderID int64) error {
	if err := l.rdb.ZRem(ctx, liveKey, memberName(riderID)).Err(); err != nil {
		return fmt.Errorf("zrem: %w", err)
	}
	return nil
}

// Nearby returns riders within the radius sorted by distance, closest first.
func (l *RiderLocator) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]LivePosition, error) {
	res, err := l.rdb.GeoSearchLocation(ctx, liveKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("geosearch: %w", err)
	}

	riders := make([]LivePosition, 0, len(res))
	for _, item := range res {
		id, err := parseRiderMember(item.Name)
		if err != nil {
			l.logger.Warn("skip invalid geo member", "member", item.Name, "error", err)
			continue
		}
		riders = append(riders, LivePosition{RiderID: id, Lat: item.Latitude, Lng: item.Longitude})
	}
	return riders, nil
}

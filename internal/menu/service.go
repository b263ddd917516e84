// Package menu serves the kiosk catalog through a Redis read-through cache.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
	pkgredis "github.com/pmcafe/kiosk/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL = 10 * time.Minute

	cacheScope = "menus"
)

type menuAPI interface {
	ListMenus(ctx context.Context, categoryID string) ([]models.MenuItem, error)
	GetMenu(ctx context.Context, menuID string) (models.MenuItem, error)
	ListCategories(ctx context.Context) ([]models.MenuCategory, error)
}

type ServiceParams struct {
	API    menuAPI
	Cache  pkgredis.Cache
	TTL    time.Duration
	Logger *logger.Logger
}

// Service reads menus. Concurrent misses for the same key share one backend call.
type Service struct {
	api   menuAPI
	cache pkgredis.Cache
	ttl   time.Duration
	logg  *logger.Logger
	group singleflight.Group
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("menu api required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{api: params.API, cache: params.Cache, ttl: ttl, logg: logg}, nil
}

// List returns the sellable items matching category, in display order.
// ALL or an empty category returns everything.
func (s *Service) List(ctx context.Context, category enums.Category) ([]models.MenuItem, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.MenuItem, 0, len(all))
	for _, item := range all {
		if category.Matches(item.Category) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Detail returns one item with its option groups.
func (s *Service) Detail(ctx context.Context, menuID string) (models.MenuItem, error) {
	var item models.MenuItem
	err := s.readThrough(ctx, s.key("detail", menuID), &item, func(ctx context.Context) (any, error) {
		return s.api.GetMenu(ctx, menuID)
	})
	return item, err
}

func (s *Service) Categories(ctx context.Context) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := s.readThrough(ctx, s.key("categories"), &categories, func(ctx context.Context) (any, error) {
		list, err := s.api.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].DisplayOrder < list[j].DisplayOrder })
		return list, nil
	})
	return categories, err
}

// Warm reloads the list and categories from the backend into the cache.
func (s *Service) Warm(ctx context.Context) error {
	list, err := s.fetchAll(ctx)
	if err != nil {
		return err
	}
	s.store(ctx, s.key("list"), list)
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].DisplayOrder < categories[j].DisplayOrder })
	s.store(ctx, s.key("categories"), categories)
	return nil
}

func (s *Service) all(ctx context.Context) ([]models.MenuItem, error) {
	var list []models.MenuItem
	err := s.readThrough(ctx, s.key("list"), &list, func(ctx context.Context) (any, error) {
		return s.fetchAll(ctx)
	})
	return list, err
}

func (s *Service) fetchAll(ctx context.Context) ([]models.MenuItem, error) {
	list, err := s.api.ListMenus(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].DisplayOrder < list[j].DisplayOrder })
	return list, nil
}

// readThrough decodes key into out, loading and storing it on a miss. Cache
// errors degrade to a direct backend read.
func (s *Service) readThrough(ctx context.Context, key string, out any, load func(context.Context) (any, error)) error {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal([]byte(raw), out); jsonErr == nil {
				return nil
			}
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "discarding undecodable menu cache entry")
		case !errors.Is(err, pkgredis.Nil):
			s.logg.Error(s.logg.WithField(ctx, "key", key), "menu cache read failed", err)
		}
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(loaded)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, payload)
		return payload, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(value.([]byte), out)
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	payload, ok := value.([]byte)
	if !ok {
		var err error
		if payload, err = json.Marshal(value); err != nil {
			s.logg.Error(ctx, "menu cache encode failed", err)
			return
		}
	}
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "key", key), "menu cache write failed", err)
	}
}

func (s *Service) key(parts ...string) string {
	if s.cache == nil {
		return cacheScope + ":" + strings.Join(parts, ":")
	}
	return s.cache.CacheKey(append([]string{cacheScope}, parts...)...)
}

// WarmJob refreshes the menu cache on the scheduler.
type WarmJob struct {
	svc *Service
}

func NewWarmJob(svc *Service) (*WarmJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("menu service required")
	}
	return &WarmJob{svc: svc}, nil
}

func (j *WarmJob) Name() string { return "menu-warm" }

func (j *WarmJob) Run(ctx context.Context) error {
	return j.svc.Warm(ctx)
}

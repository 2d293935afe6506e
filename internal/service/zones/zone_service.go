package zones

import (
	"context"
	"strings"
	"sync"

	"github.com/Domenick1991/paintballpark/internal/category"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ZoneUseCase interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (domain.Category, error)
	RenameCategory(ctx context.Context, id, name string) (domain.Category, error)
	MoveCategory(ctx context.Context, id, parentID string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryByPath(ctx context.Context, path string) (domain.Category, error)

	CreateZone(ctx context.Context, input CreateZoneInput) (*domain.Zone, error)
	GetZone(ctx context.Context, id string) (*domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
	DeleteZone(ctx context.Context, id string) error
	CandidateZones(ctx context.Context, categoryID string, iv interval.Interval) ([]domain.Zone, error)

	CreateService(ctx context.Context, input CreateServiceInput) (*domain.ServiceOffering, error)
	ListServices(ctx context.Context) ([]domain.ServiceOffering, error)
	CreateAmenityType(ctx context.Context, name string) (*domain.AmenityType, error)
	ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error)
	CreateAmenity(ctx context.Context, input CreateAmenityInput) (*domain.Amenity, error)
	ListAmenities(ctx context.Context) ([]domain.Amenity, error)
	SetAmenityState(ctx context.Context, id string, state domain.AmenityState) error
}

type Cache interface {
	GetZones(ctx context.Context) ([]domain.Zone, error)
	SetZones(ctx context.Context, zones []domain.Zone) error
	InvalidateZones(ctx context.Context) error
}

type CreateCategoryInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

type CreateZoneInput struct {
	Name         string          `json:"name"`
	CategoryID   string          `json:"category_id"`
	MinOccupants int             `json:"min_occupants"`
	MaxOccupants int             `json:"max_occupants"`
	ProductRef   string          `json:"product_ref"`
	ListPrice    decimal.Decimal `json:"list_price"`
}

type CreateServiceInput struct {
	Name       string          `json:"name"`
	ProductRef string          `json:"product_ref"`
	ListPrice  decimal.Decimal `json:"list_price"`
}

type CreateAmenityInput struct {
	Name       string          `json:"name"`
	TypeID     string          `json:"type_id"`
	Capacity   int             `json:"capacity"`
	ProductRef string          `json:"product_ref"`
	ListPrice  decimal.Decimal `json:"list_price"`
}

type ZoneService struct {
	store  *repository.Store
	ledger *ledger.Ledger
	tree   *category.Tree
	cache  Cache
	log    logrus.FieldLogger

	// categoryMu serializes category writes so the tree and the store
	// change together.
	categoryMu sync.Mutex
}

func NewZoneService(store *repository.Store, l *ledger.Ledger, tree *category.Tree, cache Cache, log logrus.FieldLogger) *ZoneService {
	return &ZoneService{
		store:  store,
		ledger: l,
		tree:   tree,
		cache:  cache,
		log:    log.WithField("component", "zones"),
	}
}

// LoadCategories rebuilds the in-memory category tree from storage.
func (s *ZoneService) LoadCategories(ctx context.Context) error {
	categories, err := s.store.Categories.List(ctx)
	if err != nil {
		return err
	}
	return s.tree.Load(categories)
}

func (s *ZoneService) CreateCategory(ctx context.Context, input CreateCategoryInput) (domain.Category, error) {
	s.categoryMu.Lock()
	defer s.categoryMu.Unlock()

	c, err := s.tree.Add(domain.Category{ID: uuid.NewString(), Name: input.Name, ParentID: input.ParentID})
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.store.Categories.Create(ctx, c); err != nil {
		s.reloadTree(ctx)
		return domain.Category{}, err
	}
	return c, nil
}

func (s *ZoneService) RenameCategory(ctx context.Context, id, name string) (domain.Category, error) {
	return s.reshape(ctx, id, func() (domain.Category, error) { return s.tree.Rename(id, name) })
}

func (s *ZoneService) MoveCategory(ctx context.Context, id, parentID string) (domain.Category, error) {
	return s.reshape(ctx, id, func() (domain.Category, error) { return s.tree.Move(id, parentID) })
}

// reshape applies a tree change and persists the new paths of the whole
// affected subtree in one transaction.
func (s *ZoneService) reshape(ctx context.Context, id string, change func() (domain.Category, error)) (domain.Category, error) {
	s.categoryMu.Lock()
	defer s.categoryMu.Unlock()

	updated, err := change()
	if err != nil {
		return domain.Category{}, err
	}
	ids, err := s.tree.Descendants(id)
	if err != nil {
		return domain.Category{}, err
	}
	err = s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		for _, cid := range ids {
			c, err := s.tree.Get(cid)
			if err != nil {
				return err
			}
			if err := s.store.Categories.Update(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.reloadTree(ctx)
		return domain.Category{}, err
	}
	return updated, nil
}

func (s *ZoneService) reloadTree(ctx context.Context) {
	if err := s.LoadCategories(ctx); err != nil {
		s.log.WithError(err).Error("category tree reload failed")
	}
}

func (s *ZoneService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.tree.List(), nil
}

func (s *ZoneService) FindCategoryByPath(ctx context.Context, path string) (domain.Category, error) {
	return s.tree.FindByPath(path)
}

func (s *ZoneService) CreateZone(ctx context.Context, input CreateZoneInput) (*domain.Zone, error) {
	zone := &domain.Zone{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		CategoryID:   input.CategoryID,
		MinOccupants: input.MinOccupants,
		MaxOccupants: input.MaxOccupants,
		Available:    true,
		Catalog:      domain.CatalogItem{ProductRef: input.ProductRef, ListPrice: input.ListPrice},
	}
	if zone.MaxOccupants == 0 {
		zone.MaxOccupants = zone.MinOccupants
	}
	if err := zone.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.tree.Get(zone.CategoryID); err != nil {
		return nil, err
	}
	if err := s.store.Zones.Create(ctx, zone); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"zone_id": zone.ID, "name": zone.Name}).Info("zone created")
	return zone, nil
}

func (s *ZoneService) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	return s.store.Zones.GetByID(ctx, id)
}

func (s *ZoneService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetZones(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	zones, err := s.store.Zones.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetZones(ctx, zones); err != nil {
			s.log.WithError(err).Warn("zones cache write failed")
		}
	}
	return zones, nil
}

// DeleteZone refuses while any assigned booking references the zone. The
// check and the delete run under the zone's ledger lock.
func (s *ZoneService) DeleteZone(ctx context.Context, id string) error {
	err := s.ledger.Batch(ctx, []string{id}, func(ctx context.Context, _ *ledger.Tx) error {
		n, err := s.store.Bookings.CountAssignedByZone(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.LifecycleError{Op: "delete zone", Msg: "zone has assigned bookings"}
		}
		return s.store.Zones.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithField("zone_id", id).Info("zone deleted")
	return nil
}

// CandidateZones lists zones of categoryID (or any category below it) with
// no assigned booking overlapping iv.
func (s *ZoneService) CandidateZones(ctx context.Context, categoryID string, iv interval.Interval) ([]domain.Zone, error) {
	if err := iv.Validate(); err != nil {
		return nil, domain.NewValidationError("%s", err.Error())
	}
	categoryIDs, err := s.tree.Descendants(categoryID)
	if err != nil {
		return nil, err
	}
	zones, err := s.store.Zones.ListByCategories(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	free := make([]domain.Zone, 0, len(zones))
	for _, z := range zones {
		conflicts, err := s.ledger.FindConflicts(ctx, z.ID, iv)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			free = append(free, z)
		}
	}
	return free, nil
}

func (s *ZoneService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateZones(ctx); err != nil {
		s.log.WithError(err).Warn("zones cache invalidation failed")
	}
}

func (s *ZoneService) CreateService(ctx context.Context, input CreateServiceInput) (*domain.ServiceOffering, error) {
	svc := &domain.ServiceOffering{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(input.Name),
		Catalog: domain.CatalogItem{ProductRef: input.ProductRef, ListPrice: input.ListPrice},
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Catalog.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *ZoneService) ListServices(ctx context.Context) ([]domain.ServiceOffering, error) {
	return s.store.Catalog.ListServices(ctx)
}

func (s *ZoneService) CreateAmenityType(ctx context.Context, name string) (*domain.AmenityType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("amenity type name is required")
	}
	t := &domain.AmenityType{ID: uuid.NewString(), Name: name}
	if err := s.store.Catalog.CreateAmenityType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ZoneService) ListAmenityTypes(ctx context.Context) ([]domain.AmenityType, error) {
	return s.store.Catalog.ListAmenityTypes(ctx)
}

func (s *ZoneService) CreateAmenity(ctx context.Context, input CreateAmenityInput) (*domain.Amenity, error) {
	a := &domain.Amenity{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(input.Name),
		TypeID:   input.TypeID,
		Capacity: input.Capacity,
		State:    domain.AmenityAvailable,
		Catalog:  domain.CatalogItem{ProductRef: input.ProductRef, ListPrice: input.ListPrice},
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Catalog.CreateAmenity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ZoneService) ListAmenities(ctx context.Context) ([]domain.Amenity, error) {
	return s.store.Catalog.ListAmenities(ctx)
}

func (s *ZoneService) SetAmenityState(ctx context.Context, id string, state domain.AmenityState) error {
	if state != domain.AmenityAvailable && state != domain.AmenityOccupied {
		return domain.NewValidationError("unknown amenity state %q", state)
	}
	return s.store.Catalog.SetAmenityState(ctx, id, state)
}

var _ ZoneUseCase = (*ZoneService)(nil)

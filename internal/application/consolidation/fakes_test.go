package consolidation_test

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional (copia al iniciar, swap al
// commit, descarte al rollback) e inyección de fallas por método, para probar
// la atomicidad del coordinador sin base de datos.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu sync.Mutex

	deliveries  map[string]*entity.Delivery
	items       map[string]*entity.DeliveryItem
	lots        map[string]*entity.InventoryLot
	details     map[string]*entity.InventoryDetail
	prices      map[string]*entity.SellingPrice
	descriptors map[string]*entity.Descriptor
	products    map[string]*entity.Product

	// Orden de inserción, para que "el primero encontrado" y "el más
	// reciente" sean deterministas en los tests.
	detailOrder []string
	priceOrder  []string
	lotOrder    []string
}

func newMemStore() *memStore {
	return &memStore{
		deliveries:  map[string]*entity.Delivery{},
		items:       map[string]*entity.DeliveryItem{},
		lots:        map[string]*entity.InventoryLot{},
		details:     map[string]*entity.InventoryDetail{},
		prices:      map[string]*entity.SellingPrice{},
		descriptors: map[string]*entity.Descriptor{},
		products:    map[string]*entity.Product{},
	}
}

func copyStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDecimalPtr(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDelivery(d *entity.Delivery) *entity.Delivery {
	c := *d
	return &c
}

func copyItem(it *entity.DeliveryItem) *entity.DeliveryItem {
	c := *it
	if it.ExpiryDate != nil {
		v := *it.ExpiryDate
		c.ExpiryDate = &v
	}
	c.LotNo = copyStrPtr(it.LotNo)
	c.BatchNo = copyStrPtr(it.BatchNo)
	return &c
}

func copyLot(l *entity.InventoryLot) *entity.InventoryLot {
	c := *l
	if l.ExpiryDate != nil {
		v := *l.ExpiryDate
		c.ExpiryDate = &v
	}
	c.LotNo = copyStrPtr(l.LotNo)
	c.BatchNo = copyStrPtr(l.BatchNo)
	c.ReceiptAudit = append([]entity.ReceiptToken(nil), l.ReceiptAudit...)
	return &c
}

func copyDetail(d *entity.InventoryDetail) *entity.InventoryDetail {
	c := *d
	c.AssignedRepID = copyStrPtr(d.AssignedRepID)
	c.IncentiveKind = copyStrPtr(d.IncentiveKind)
	c.IncentiveValue = copyDecimalPtr(d.IncentiveValue)
	return &c
}

func copyPrice(p *entity.SellingPrice) *entity.SellingPrice {
	c := *p
	return &c
}

func copyDescriptor(d *entity.Descriptor) *entity.Descriptor {
	c := *d
	return &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	c.MaterialID = copyStrPtr(p.MaterialID)
	c.SizeID = copyStrPtr(p.SizeID)
	c.DosageFormID = copyStrPtr(p.DosageFormID)
	c.ATCCodeID = copyStrPtr(p.ATCCodeID)
	return &c
}

// clone copia profunda del estado (sin el mutex).
func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.deliveries {
		c.deliveries[k] = copyDelivery(v)
	}
	for k, v := range s.items {
		c.items[k] = copyItem(v)
	}
	for k, v := range s.lots {
		c.lots[k] = copyLot(v)
	}
	for k, v := range s.details {
		c.details[k] = copyDetail(v)
	}
	for k, v := range s.prices {
		c.prices[k] = copyPrice(v)
	}
	for k, v := range s.descriptors {
		c.descriptors[k] = copyDescriptor(v)
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	c.detailOrder = append([]string(nil), s.detailOrder...)
	c.priceOrder = append([]string(nil), s.priceOrder...)
	c.lotOrder = append([]string(nil), s.lotOrder...)
	return c
}

// replaceWith adopta el estado de otro store (commit de una tx).
func (s *memStore) replaceWith(o *memStore) {
	s.deliveries = o.deliveries
	s.items = o.items
	s.lots = o.lots
	s.details = o.details
	s.prices = o.prices
	s.descriptors = o.descriptors
	s.products = o.products
	s.detailOrder = o.detailOrder
	s.priceOrder = o.priceOrder
	s.lotOrder = o.lotOrder
}

// state devuelve una copia del estado para comparaciones de atomicidad.
func (s *memStore) state() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clone()
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios falsos sobre el memStore, con inyección de fallas por método.
// ──────────────────────────────────────────────────────────────────────────────

type failures map[string]error

func (f failures) check(method string) error {
	if f == nil {
		return nil
	}
	return f[method]
}

type memDeliveryRepo struct {
	s *memStore
	f failures
}

func (r *memDeliveryRepo) Create(d *entity.Delivery) error {
	if err := r.f.check("Deliveries.Create"); err != nil {
		return err
	}
	r.s.deliveries[d.ID] = copyDelivery(d)
	return nil
}

func (r *memDeliveryRepo) GetByID(id string) (*entity.Delivery, error) {
	d, ok := r.s.deliveries[id]
	if !ok {
		return nil, nil
	}
	return copyDelivery(d), nil
}

func (r *memDeliveryRepo) List(limit, offset int) ([]*entity.Delivery, error) {
	var out []*entity.Delivery
	for _, d := range r.s.deliveries {
		out = append(out, copyDelivery(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDeliveryRepo) Deactivate(id string) error {
	if err := r.f.check("Deliveries.Deactivate"); err != nil {
		return err
	}
	d, ok := r.s.deliveries[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Active = false
	return nil
}

type memItemRepo struct {
	s *memStore
	f failures
}

func (r *memItemRepo) Create(item *entity.DeliveryItem) error {
	if err := r.f.check("Items.Create"); err != nil {
		return err
	}
	r.s.items[item.ID] = copyItem(item)
	return nil
}

func (r *memItemRepo) GetByID(id string) (*entity.DeliveryItem, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return copyItem(it), nil
}

func (r *memItemRepo) GetByIDForUpdate(id string) (*entity.DeliveryItem, error) {
	if err := r.f.check("Items.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *memItemRepo) ListActiveByDelivery(deliveryID string) ([]*entity.DeliveryItem, error) {
	var out []*entity.DeliveryItem
	for _, it := range r.s.items {
		if it.DeliveryID == deliveryID && it.Status == entity.ItemStatusPending {
			out = append(out, copyItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memItemRepo) DeactivateByDelivery(deliveryID string) error {
	if err := r.f.check("Items.DeactivateByDelivery"); err != nil {
		return err
	}
	for _, it := range r.s.items {
		if it.DeliveryID == deliveryID && it.Status == entity.ItemStatusPending {
			it.Status = entity.ItemStatusDeactivated
			it.Editable = false
		}
	}
	return nil
}

func (r *memItemRepo) Approve(id string) error {
	if err := r.f.check("Items.Approve"); err != nil {
		return err
	}
	it, ok := r.s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if it.Status != entity.ItemStatusPending {
		return domain.ErrConcurrencyConflict
	}
	it.Status = entity.ItemStatusApproved
	it.Editable = false
	return nil
}

func (r *memItemRepo) CountPendingByDelivery(deliveryID string) (int, error) {
	if err := r.f.check("Items.CountPendingByDelivery"); err != nil {
		return 0, err
	}
	n := 0
	for _, it := range r.s.items {
		if it.DeliveryID == deliveryID && it.Status == entity.ItemStatusPending {
			n++
		}
	}
	return n, nil
}

type memLotRepo struct {
	s *memStore
	f failures
}

// sameLotIdentity compara la clave natural de dos lotes, con nulos iguales
// entre sí (como el índice único NULLS NOT DISTINCT del esquema).
func sameLotIdentity(a, b *entity.InventoryLot) bool {
	eq := func(x, y *string) bool {
		if x == nil || y == nil {
			return x == nil && y == nil
		}
		return *x == *y
	}
	if a.ProductID != b.ProductID || !eq(a.LotNo, b.LotNo) || !eq(a.BatchNo, b.BatchNo) {
		return false
	}
	if a.ExpiryDate == nil || b.ExpiryDate == nil {
		return a.ExpiryDate == nil && b.ExpiryDate == nil
	}
	return a.ExpiryDate.Equal(*b.ExpiryDate)
}

func (r *memLotRepo) Create(lot *entity.InventoryLot) error {
	if err := r.f.check("Lots.Create"); err != nil {
		return err
	}
	for _, other := range r.s.lots {
		if other.Active && sameLotIdentity(other, lot) {
			return domain.ErrConcurrencyConflict
		}
	}
	r.s.lots[lot.ID] = copyLot(lot)
	r.s.lotOrder = append(r.s.lotOrder, lot.ID)
	return nil
}

func (r *memLotRepo) GetByID(id string) (*entity.InventoryLot, error) {
	l, ok := r.s.lots[id]
	if !ok {
		return nil, nil
	}
	return copyLot(l), nil
}

func matchesFilter(l *entity.InventoryLot, f repository.LotIdentityFilter) bool {
	if !l.Active || l.ProductID != f.ProductID {
		return false
	}
	if f.ExpiryDate != nil {
		if l.ExpiryDate == nil || !l.ExpiryDate.Equal(*f.ExpiryDate) {
			return false
		}
	}
	if f.LotNo != nil {
		if l.LotNo == nil || *l.LotNo != *f.LotNo {
			return false
		}
	}
	if f.BatchNo != nil {
		if l.BatchNo == nil || *l.BatchNo != *f.BatchNo {
			return false
		}
	}
	return true
}

func (r *memLotRepo) FindActiveByIdentity(f repository.LotIdentityFilter) ([]*entity.InventoryLot, error) {
	if err := r.f.check("Lots.FindActiveByIdentity"); err != nil {
		return nil, err
	}
	var out []*entity.InventoryLot
	for _, id := range r.s.lotOrder {
		l, ok := r.s.lots[id]
		if ok && matchesFilter(l, f) {
			out = append(out, copyLot(l))
		}
	}
	return out, nil
}

func (r *memLotRepo) AppendReceipt(lotID string, token entity.ReceiptToken) error {
	if err := r.f.check("Lots.AppendReceipt"); err != nil {
		return err
	}
	l, ok := r.s.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	l.ReceiptAudit = append(l.ReceiptAudit, token)
	l.Version++
	return nil
}

type memDetailRepo struct {
	s *memStore
	f failures
}

func (r *memDetailRepo) Create(detail *entity.InventoryDetail) error {
	if err := r.f.check("Details.Create"); err != nil {
		return err
	}
	for _, other := range r.s.details {
		if other.LotID == detail.LotID && other.UnitID == detail.UnitID && other.ConversionLevel == detail.ConversionLevel {
			return domain.ErrConcurrencyConflict
		}
	}
	r.s.details[detail.ID] = copyDetail(detail)
	r.s.detailOrder = append(r.s.detailOrder, detail.ID)
	return nil
}

func (r *memDetailRepo) GetByID(id string) (*entity.InventoryDetail, error) {
	d, ok := r.s.details[id]
	if !ok {
		return nil, nil
	}
	return copyDetail(d), nil
}

func (r *memDetailRepo) GetByIDForUpdate(id string) (*entity.InventoryDetail, error) {
	if err := r.f.check("Details.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *memDetailRepo) ListByLot(lotID string) ([]*entity.InventoryDetail, error) {
	if err := r.f.check("Details.ListByLot"); err != nil {
		return nil, err
	}
	var out []*entity.InventoryDetail
	for _, id := range r.s.detailOrder {
		d, ok := r.s.details[id]
		if ok && d.LotID == lotID {
			out = append(out, copyDetail(d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConversionLevel < out[j].ConversionLevel })
	return out, nil
}

func (r *memDetailRepo) AddToBalance(id string, delta decimal.Decimal) error {
	if err := r.f.check("Details.AddToBalance"); err != nil {
		return err
	}
	d, ok := r.s.details[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.RunningBalance = d.RunningBalance.Add(delta)
	d.Version++
	return nil
}

func (r *memDetailRepo) UpdateRepAssignment(id string, rep entity.RepAssignment) error {
	if err := r.f.check("Details.UpdateRepAssignment"); err != nil {
		return err
	}
	d, ok := r.s.details[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.ApplyRepAssignment(rep)
	d.Version++
	return nil
}

type memPriceRepo struct {
	s *memStore
	f failures
}

func (r *memPriceRepo) Create(p *entity.SellingPrice) error {
	if err := r.f.check("Prices.Create"); err != nil {
		return err
	}
	r.s.prices[p.ID] = copyPrice(p)
	r.s.priceOrder = append(r.s.priceOrder, p.ID)
	return nil
}

func (r *memPriceRepo) Current(detailID string) (*entity.SellingPrice, error) {
	if err := r.f.check("Prices.Current"); err != nil {
		return nil, err
	}
	for i := len(r.s.priceOrder) - 1; i >= 0; i-- {
		p, ok := r.s.prices[r.s.priceOrder[i]]
		if ok && p.InventoryDetailID == detailID {
			return copyPrice(p), nil
		}
	}
	return nil, nil
}

func (r *memPriceRepo) ListByDetail(detailID string) ([]*entity.SellingPrice, error) {
	var out []*entity.SellingPrice
	for i := len(r.s.priceOrder) - 1; i >= 0; i-- {
		p, ok := r.s.prices[r.s.priceOrder[i]]
		if ok && p.InventoryDetailID == detailID {
			out = append(out, copyPrice(p))
		}
	}
	return out, nil
}

type memDescriptorRepo struct {
	s *memStore
	f failures
}

func (r *memDescriptorRepo) GetByID(id string) (*entity.Descriptor, error) {
	d, ok := r.s.descriptors[id]
	if !ok {
		return nil, nil
	}
	return copyDescriptor(d), nil
}

func (r *memDescriptorRepo) Lock(ids []string) error {
	if err := r.f.check("Descriptors.Lock"); err != nil {
		return err
	}
	for _, id := range ids {
		if d, ok := r.s.descriptors[id]; ok {
			d.Editable = false
		}
	}
	return nil
}

type memProductRepo struct {
	s *memStore
	f failures
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	if err := r.f.check("Products.GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (r *memProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func bindMemRepos(s *memStore, f failures) consolidation.TxRepos {
	return consolidation.TxRepos{
		Deliveries:  &memDeliveryRepo{s: s, f: f},
		Items:       &memItemRepo{s: s, f: f},
		Lots:        &memLotRepo{s: s, f: f},
		Details:     &memDetailRepo{s: s, f: f},
		Prices:      &memPriceRepo{s: s, f: f},
		Descriptors: &memDescriptorRepo{s: s, f: f},
		Products:    &memProductRepo{s: s, f: f},
	}
}

// memTxRunner emula transacciones serializables: clona el estado al
// iniciar, descarta la copia si fn falla (rollback) y la adopta si
// termina bien (commit). El mutex global serializa las tx concurrentes.
type memTxRunner struct {
	store *memStore
	f     failures
	// conflictsLeft fuerza ErrConcurrencyConflict las primeras n corridas,
	// para ejercitar el reintento del coordinador.
	conflictsLeft int
	runs          int
}

func (r *memTxRunner) Run(ctx context.Context, fn func(repos consolidation.TxRepos) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.runs++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return domain.ErrConcurrencyConflict
	}
	work := r.store.clone()
	if err := fn(bindMemRepos(work, r.f)); err != nil {
		return err
	}
	r.store.replaceWith(work)
	return nil
}

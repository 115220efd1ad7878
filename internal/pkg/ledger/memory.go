package ledger

import (
	"sync"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
)

// MemoryRepository is an in-memory ledger used by unit tests. Transact
// snapshots all tables up front and restores them when fn fails, so the
// rollback semantics of the real store hold.
type MemoryRepository struct {
	mu sync.Mutex

	nextID        uint
	payments      map[uint]models.Payment
	jobs          map[uint]models.Job
	subscriptions map[uint]models.SubscriptionQuota
	oneTimeQuotas map[uint]models.OneTimeQuota
	employers     map[uint]models.Employer
	quests        map[uint]models.Quest
	webhookEvents map[uint]models.PaymentWebhookEvent
}

// NewMemoryRepository creates an empty in-memory ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:        1,
		payments:      make(map[uint]models.Payment),
		jobs:          make(map[uint]models.Job),
		subscriptions: make(map[uint]models.SubscriptionQuota),
		oneTimeQuotas: make(map[uint]models.OneTimeQuota),
		employers:     make(map[uint]models.Employer),
		quests:        make(map[uint]models.Quest),
		webhookEvents: make(map[uint]models.PaymentWebhookEvent),
	}
}

func (m *MemoryRepository) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

func copyTable[T any](src map[uint]T) map[uint]T {
	dst := make(map[uint]T, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *MemoryRepository) Transact(fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payments := copyTable(m.payments)
	jobs := copyTable(m.jobs)
	subscriptions := copyTable(m.subscriptions)
	oneTimeQuotas := copyTable(m.oneTimeQuotas)
	employers := copyTable(m.employers)
	quests := copyTable(m.quests)
	webhookEvents := copyTable(m.webhookEvents)
	nextID := m.nextID

	if err := fn((*txRepository)(m)); err != nil {
		m.payments = payments
		m.jobs = jobs
		m.subscriptions = subscriptions
		m.oneTimeQuotas = oneTimeQuotas
		m.employers = employers
		m.quests = quests
		m.webhookEvents = webhookEvents
		m.nextID = nextID
		return err
	}
	return nil
}

// txRepository is the transaction-scoped view handed to Transact
// callbacks. It shares storage with the parent but skips locking, which
// the parent already holds.
type txRepository MemoryRepository

func (t *txRepository) Transact(fn func(Repository) error) error {
	return fn(t)
}

func (m *MemoryRepository) locked(fn func(*txRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn((*txRepository)(m))
}

// Non-transactional entry points take the lock and delegate.

func (m *MemoryRepository) CreatePayment(p *models.Payment) error {
	return m.locked(func(t *txRepository) error { return t.CreatePayment(p) })
}

func (m *MemoryRepository) PaymentForUpdate(id uint) (p *models.Payment, err error) {
	err = m.locked(func(t *txRepository) error { p, err = t.PaymentForUpdate(id); return err })
	return p, err
}

func (m *MemoryRepository) SavePayment(p *models.Payment) error {
	return m.locked(func(t *txRepository) error { return t.SavePayment(p) })
}

func (m *MemoryRepository) SetPaymentCheckout(id uint, snapToken, paymentURL string) error {
	return m.locked(func(t *txRepository) error { return t.SetPaymentCheckout(id, snapToken, paymentURL) })
}

func (m *MemoryRepository) CreateJob(j *models.Job) error {
	return m.locked(func(t *txRepository) error { return t.CreateJob(j) })
}

func (m *MemoryRepository) SetJobStatus(id uint, status string) error {
	return m.locked(func(t *txRepository) error { return t.SetJobStatus(id, status) })
}

func (m *MemoryRepository) CreateSubscriptionQuota(s *models.SubscriptionQuota) error {
	return m.locked(func(t *txRepository) error { return t.CreateSubscriptionQuota(s) })
}

func (m *MemoryRepository) ActiveSubscriptionForEmployer(employerID uint) (s *models.SubscriptionQuota, err error) {
	err = m.locked(func(t *txRepository) error { s, err = t.ActiveSubscriptionForEmployer(employerID); return err })
	return s, err
}

func (m *MemoryRepository) SubscriptionForUpdate(id uint) (s *models.SubscriptionQuota, err error) {
	err = m.locked(func(t *txRepository) error { s, err = t.SubscriptionForUpdate(id); return err })
	return s, err
}

func (m *MemoryRepository) SaveSubscriptionQuota(s *models.SubscriptionQuota) error {
	return m.locked(func(t *txRepository) error { return t.SaveSubscriptionQuota(s) })
}

func (m *MemoryRepository) ActiveSubscriptionIDs() (ids []uint, err error) {
	err = m.locked(func(t *txRepository) error { ids, err = t.ActiveSubscriptionIDs(); return err })
	return ids, err
}

func (m *MemoryRepository) CreateOneTimeQuota(q *models.OneTimeQuota) error {
	return m.locked(func(t *txRepository) error { return t.CreateOneTimeQuota(q) })
}

func (m *MemoryRepository) SaveOneTimeQuota(q *models.OneTimeQuota) error {
	return m.locked(func(t *txRepository) error { return t.SaveOneTimeQuota(q) })
}

func (m *MemoryRepository) EmployerForUpdate(id uint) (e *models.Employer, err error) {
	err = m.locked(func(t *txRepository) error { e, err = t.EmployerForUpdate(id); return err })
	return e, err
}

func (m *MemoryRepository) AddEmployerOnetimeQuota(employerID uint, delta int) error {
	return m.locked(func(t *txRepository) error { return t.AddEmployerOnetimeQuota(employerID, delta) })
}

func (m *MemoryRepository) CreateQuest(q *models.Quest) error {
	return m.locked(func(t *txRepository) error { return t.CreateQuest(q) })
}

func (m *MemoryRepository) CreateWebhookEventIfNotExists(e *models.PaymentWebhookEvent) (created bool, stored *models.PaymentWebhookEvent, err error) {
	err = m.locked(func(t *txRepository) error {
		created, stored, err = t.CreateWebhookEventIfNotExists(e)
		return err
	})
	return created, stored, err
}

func (m *MemoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	return m.locked(func(t *txRepository) error { return t.MarkWebhookProcessed(id, processingError) })
}

// Seed helpers used by tests.

// SeedEmployer inserts an employer and returns its id.
func (m *MemoryRepository) SeedEmployer(e models.Employer) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.allocID()
	}
	m.employers[e.ID] = e
	return e.ID
}

// Employer returns a copy of the stored employer row.
func (m *MemoryRepository) Employer(id uint) (models.Employer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employers[id]
	return e, ok
}

// Payment returns a copy of the stored payment row.
func (m *MemoryRepository) Payment(id uint) (models.Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	return p, ok
}

// Job returns a copy of the stored job row.
func (m *MemoryRepository) Job(id uint) (models.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok
}

// Subscription returns a copy of the stored subscription row.
func (m *MemoryRepository) Subscription(id uint) (models.SubscriptionQuota, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[id]
	return s, ok
}

// OneTimeQuotaRow returns a copy of the stored one-time quota row.
func (m *MemoryRepository) OneTimeQuotaRow(id uint) (models.OneTimeQuota, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.oneTimeQuotas[id]
	return q, ok
}

// QuestCount reports the number of stored quests.
func (m *MemoryRepository) QuestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quests)
}

// Transaction-scoped implementations.

func (t *txRepository) CreatePayment(p *models.Payment) error {
	if p.ID == 0 {
		p.ID = (*MemoryRepository)(t).allocID()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	t.payments[p.ID] = *p
	return nil
}

func (t *txRepository) PaymentForUpdate(id uint) (*models.Payment, error) {
	p, ok := t.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, j := range t.jobs {
		if j.PaymentID != nil && *j.PaymentID == id {
			job := j
			p.Job = &job
		}
	}
	for _, s := range t.subscriptions {
		if s.PaymentID != nil && *s.PaymentID == id {
			sub := s
			p.Subscription = &sub
		}
	}
	for _, q := range t.oneTimeQuotas {
		if q.PaymentID != nil && *q.PaymentID == id {
			quota := q
			p.OneTimeQuota = &quota
		}
	}
	return &p, nil
}

func (t *txRepository) SavePayment(p *models.Payment) error {
	if _, ok := t.payments[p.ID]; !ok {
		return ErrNotFound
	}
	stored := *p
	stored.Job, stored.Subscription, stored.OneTimeQuota = nil, nil, nil
	t.payments[p.ID] = stored
	return nil
}

func (t *txRepository) SetPaymentCheckout(id uint, snapToken, paymentURL string) error {
	p, ok := t.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.SnapToken = snapToken
	p.PaymentURL = paymentURL
	t.payments[id] = p
	return nil
}

func (t *txRepository) CreateJob(j *models.Job) error {
	if j.ID == 0 {
		j.ID = (*MemoryRepository)(t).allocID()
	}
	t.jobs[j.ID] = *j
	return nil
}

func (t *txRepository) SetJobStatus(id uint, status string) error {
	j, ok := t.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status = status
	t.jobs[id] = j
	return nil
}

func (t *txRepository) CreateSubscriptionQuota(s *models.SubscriptionQuota) error {
	if s.ID == 0 {
		s.ID = (*MemoryRepository)(t).allocID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	t.subscriptions[s.ID] = *s
	return nil
}

func (t *txRepository) ActiveSubscriptionForEmployer(employerID uint) (*models.SubscriptionQuota, error) {
	var found *models.SubscriptionQuota
	for _, s := range t.subscriptions {
		if s.EmployerID == employerID && s.IsActive {
			if found == nil || s.CreatedAt.After(found.CreatedAt) {
				sub := s
				found = &sub
			}
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (t *txRepository) SubscriptionForUpdate(id uint) (*models.SubscriptionQuota, error) {
	s, ok := t.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (t *txRepository) SaveSubscriptionQuota(s *models.SubscriptionQuota) error {
	if _, ok := t.subscriptions[s.ID]; !ok {
		return ErrNotFound
	}
	t.subscriptions[s.ID] = *s
	return nil
}

func (t *txRepository) ActiveSubscriptionIDs() ([]uint, error) {
	var ids []uint
	for id, s := range t.subscriptions {
		if s.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *txRepository) CreateOneTimeQuota(q *models.OneTimeQuota) error {
	if q.ID == 0 {
		q.ID = (*MemoryRepository)(t).allocID()
	}
	t.oneTimeQuotas[q.ID] = *q
	return nil
}

func (t *txRepository) SaveOneTimeQuota(q *models.OneTimeQuota) error {
	if _, ok := t.oneTimeQuotas[q.ID]; !ok {
		return ErrNotFound
	}
	t.oneTimeQuotas[q.ID] = *q
	return nil
}

func (t *txRepository) EmployerForUpdate(id uint) (*models.Employer, error) {
	e, ok := t.employers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (t *txRepository) AddEmployerOnetimeQuota(employerID uint, delta int) error {
	e, ok := t.employers[employerID]
	if !ok {
		return ErrNotFound
	}
	e.OnetimeQuota += delta
	t.employers[employerID] = e
	return nil
}

func (t *txRepository) CreateQuest(q *models.Quest) error {
	if q.ID == 0 {
		q.ID = (*MemoryRepository)(t).allocID()
	}
	t.quests[q.ID] = *q
	return nil
}

func (t *txRepository) CreateWebhookEventIfNotExists(e *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	for _, stored := range t.webhookEvents {
		if stored.Provider == e.Provider && stored.ProviderEventID == e.ProviderEventID {
			existing := stored
			return false, &existing, nil
		}
	}
	if e.ID == 0 {
		e.ID = (*MemoryRepository)(t).allocID()
	}
	t.webhookEvents[e.ID] = *e
	stored := *e
	return true, &stored, nil
}

func (t *txRepository) MarkWebhookProcessed(id uint, processingError string) error {
	e, ok := t.webhookEvents[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	e.ProcessedAt = &now
	e.ProcessingError = processingError
	t.webhookEvents[id] = e
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/payment"
	"github.com/nnacademy/academy-api/internal/queue"
	"github.com/nnacademy/academy-api/internal/repository"
)

// memDB mimics the MySQL schema closely enough for the services: unique
// keys become map keys and each store method holds the lock for its whole
// body, which plays the part of the row locks and transactions.
type memDB struct {
	mu          sync.Mutex
	nextID      uint64
	users       map[uint64]*model.User
	courses     map[uint64]*model.Course
	enrollments map[[2]uint64]*model.Enrollment
	completed   map[uint64][]string
	userCourses map[uint64]map[uint64]bool
	payments    map[string]*model.PaymentTransaction
	classes     map[uint64]*model.LiveClass
	certs       map[[2]uint64]model.Certificate
	tokens      map[string]*fakeToken
}

type fakeToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uint64]*model.User{},
		courses:     map[uint64]*model.Course{},
		enrollments: map[[2]uint64]*model.Enrollment{},
		completed:   map[uint64][]string{},
		userCourses: map[uint64]map[uint64]bool{},
		payments:    map[string]*model.PaymentTransaction{},
		classes:     map[uint64]*model.LiveClass{},
		certs:       map[[2]uint64]model.Certificate{},
		tokens:      map[string]*fakeToken{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) addCourse(c model.Course) *model.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == 0 {
		c.ID = db.id()
	}
	if c.Type == "" {
		c.Type = model.CourseInternal
	}
	if c.Currency == "" {
		c.Currency = "inr"
	}
	db.courses[c.ID] = &c
	return &c
}

func (db *memDB) studentsCount(courseID uint64) uint32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.courses[courseID].StudentsCount
}

func (db *memDB) enrollmentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.enrollments)
}

func (db *memDB) payment(sessionID string) model.PaymentTransaction {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.payments[sessionID]
}

func (db *memDB) grantLocked(userID, courseID uint64, source string) bool {
	key := [2]uint64{userID, courseID}
	created := false
	if _, ok := db.enrollments[key]; !ok {
		db.enrollments[key] = &model.Enrollment{ID: db.id(), UserID: userID, CourseID: courseID, Source: source}
		db.courses[courseID].StudentsCount++
		created = true
	}
	if db.userCourses[userID] == nil {
		db.userCourses[userID] = map[uint64]bool{}
	}
	db.userCourses[userID][courseID] = true
	return created
}

// --- users ---

type userStore struct{ db *memDB }

func (s userStore) FindOrCreateByPhone(_ context.Context, phone string) (model.User, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Phone == phone {
			return *u, false, nil
		}
	}
	u := &model.User{ID: s.db.id(), Phone: phone, Role: model.RoleStudent, CourseIDs: []uint64{}}
	s.db.users[u.ID] = u
	return *u, true, nil
}

func (s userStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

// --- tokens ---

type tokenStore struct{ db *memDB }

func (s tokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tokens[hash] = &fakeToken{userID: userID, exp: exp}
	return nil
}

func (s tokenStore) ConsumeRefresh(_ context.Context, hash string) (uint64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	t.revoked = true
	return t.userID, nil
}

func (s tokenStore) RevokeByHash(_ context.Context, hash string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[hash]
	if !ok || t.revoked {
		return false, nil
	}
	t.revoked = true
	return true, nil
}

func (s tokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

// --- courses ---

type courseStore struct{ db *memDB }

func (s courseStore) GetByID(_ context.Context, id uint64) (model.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return *c, nil
}

// --- enrollments ---

type enrollmentStore struct{ db *memDB }

func (s enrollmentStore) Get(_ context.Context, userID, courseID uint64) (model.Enrollment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.enrollments[[2]uint64{userID, courseID}]
	if !ok {
		return model.Enrollment{}, repository.ErrNotFound
	}
	out := *e
	out.CompletedLessons = append([]string{}, s.db.completed[e.ID]...)
	return out, nil
}

func (s enrollmentStore) AddCompletedLesson(_ context.Context, enrollmentID uint64, key string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, k := range s.db.completed[enrollmentID] {
		if k == key {
			return nil
		}
	}
	s.db.completed[enrollmentID] = append(s.db.completed[enrollmentID], key)
	return nil
}

func (s enrollmentStore) CompletedLessons(_ context.Context, enrollmentID uint64) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]string{}, s.db.completed[enrollmentID]...), nil
}

func (s enrollmentStore) SetProgress(_ context.Context, enrollmentID uint64, p float64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.enrollments {
		if e.ID == enrollmentID {
			e.Progress = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s enrollmentStore) Grant(_ context.Context, userID, courseID uint64, source string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[courseID]; !ok {
		return false, repository.ErrNotFound
	}
	return s.db.grantLocked(userID, courseID, source), nil
}

// --- payments ---

type paymentStore struct{ db *memDB }

func (s paymentStore) CreatePending(_ context.Context, p *model.PaymentTransaction) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.payments[p.SessionID]; ok {
		return repository.ErrConflict
	}
	p.ID = s.db.id()
	p.Status = model.PaymentPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.db.payments[p.SessionID] = &cp
	return nil
}

func (s paymentStore) GetBySessionID(_ context.Context, id string) (model.PaymentTransaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok {
		return model.PaymentTransaction{}, repository.ErrNotFound
	}
	return *p, nil
}

func (s paymentStore) SetProviderStatus(_ context.Context, id, ps string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.payments[id]; ok && p.Status == model.PaymentPending {
		p.ProviderStatus = ps
	}
	return nil
}

func (s paymentStore) MarkTerminal(_ context.Context, id, status, ps string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = status
	p.ProviderStatus = ps
	return true, nil
}

func (s paymentStore) Fulfil(_ context.Context, id, ps string) (repository.FulfilResult, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok {
		return repository.FulfilResult{}, repository.ErrNotFound
	}
	if p.Status == model.PaymentPaid {
		return repository.FulfilResult{Transaction: *p, AlreadyPaid: true}, nil
	}
	if p.Terminal() {
		return repository.FulfilResult{Transaction: *p}, nil
	}
	enrolled := s.db.grantLocked(p.UserID, p.CourseID, model.SourcePayment)
	now := time.Now().UTC()
	p.Status = model.PaymentPaid
	p.ProviderStatus = ps
	p.PaidAt = &now
	return repository.FulfilResult{Transaction: *p, Enrolled: enrolled}, nil
}

func (s paymentStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]model.PaymentTransaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.PaymentTransaction
	for _, p := range s.db.payments {
		if p.Status == model.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- live classes ---

type classStore struct{ db *memDB }

func (s classStore) Book(_ context.Context, classID, userID uint64, admit func(*model.LiveClass) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	lc, ok := s.db.classes[classID]
	if !ok {
		return repository.ErrNotFound
	}
	view := *lc
	view.EnrolledUsers = append([]uint64{}, lc.EnrolledUsers...)
	if err := admit(&view); err != nil {
		return err
	}
	if !lc.Booked(userID) {
		lc.EnrolledUsers = append(lc.EnrolledUsers, userID)
	}
	return nil
}

// --- certificates ---

type certStore struct{ db *memDB }

func (s certStore) CreateIfAbsent(_ context.Context, userID, courseID uint64, code string, at time.Time) (model.Certificate, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]uint64{userID, courseID}
	if c, ok := s.db.certs[key]; ok {
		return c, false, nil
	}
	c := model.Certificate{ID: s.db.id(), Code: code, UserID: userID, CourseID: courseID, CompletedAt: at, IssuedAt: at}
	s.db.certs[key] = c
	return c, true, nil
}

// --- collaborators ---

type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	statuses  map[string]payment.Status
	requests  []payment.SessionRequest
	createErr error
	statusErr error
	events    map[string]payment.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]payment.Status{}, events: map[string]payment.Event{}}
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return payment.Session{}, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	g.requests = append(g.requests, req)
	g.statuses[id] = payment.Status{SessionStatus: payment.SessionOpen, PaymentStatus: payment.PaymentUnpaid}
	return payment.Session{ID: id, URL: "https://checkout.example.com/pay/" + id}, nil
}

func (g *fakeGateway) GetStatus(_ context.Context, id string) (payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return payment.Status{}, g.statusErr
	}
	st, ok := g.statuses[id]
	if !ok {
		return payment.Status{}, errors.New("no such session")
	}
	return st, nil
}

func (g *fakeGateway) set(id, sessionStatus, paymentStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[id] = payment.Status{SessionStatus: sessionStatus, PaymentStatus: paymentStatus}
}

// VerifyWebhook treats the signature as a key into a table of
// pre-registered events.
func (g *fakeGateway) VerifyWebhook(_ []byte, sig string) (payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ev, ok := g.events[sig]
	if !ok {
		return payment.Event{}, payment.ErrSignature
	}
	return ev, nil
}

func (g *fakeGateway) sign(ev payment.Event) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	sig := fmt.Sprintf("sig_%d", len(g.events)+1)
	g.events[sig] = ev
	return sig
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.EnrollmentConfirmedEvent
	err    error
}

func (f *fakeEvents) PublishEnrollmentConfirmed(_ context.Context, ev queue.EnrollmentConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+": "+body)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("SM%d", len(f.sent)), nil
}

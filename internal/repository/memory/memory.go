// Package memory implements the repository interfaces on in-process maps.
// It backs DATASTORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

// DB holds every table behind one mutex so cross-table checks stay consistent.
type DB struct {
	mu         sync.Mutex
	businesses map[uuid.UUID]*model.Business
	customers  map[uuid.UUID]*model.Customer
	requests   map[uuid.UUID]*model.ReviewRequest
	clicks     []*model.ReviewClick
	feedbacks  map[uuid.UUID]*model.PrivateFeedback
	campaigns  map[uuid.UUID]*model.Campaign
	qrCodes    map[uuid.UUID]*model.QRCode
}

func NewDB() *DB {
	return &DB{
		businesses: make(map[uuid.UUID]*model.Business),
		customers:  make(map[uuid.UUID]*model.Customer),
		requests:   make(map[uuid.UUID]*model.ReviewRequest),
		feedbacks:  make(map[uuid.UUID]*model.PrivateFeedback),
		campaigns:  make(map[uuid.UUID]*model.Campaign),
		qrCodes:    make(map[uuid.UUID]*model.QRCode),
	}
}

// NewStore returns a Store whose repositories share a fresh DB.
func NewStore() (*repository.Store, *DB) {
	db := NewDB()
	return &repository.Store{
		Businesses: &BusinessRepository{db: db},
		Customers:  &CustomerRepository{db: db},
		Requests:   &ReviewRequestRepository{db: db},
		Clicks:     &ClickRepository{db: db},
		Feedbacks:  &FeedbackRepository{db: db},
		Campaigns:  &CampaignRepository{db: db},
		QRCodes:    &QRCodeRepository{db: db},
	}, db
}

// ====================== Businesses ======================

type BusinessRepository struct{ db *DB }

func (r *BusinessRepository) Create(ctx context.Context, b *model.Business) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	r.db.businesses[b.ID] = &cp
	return nil
}

func (r *BusinessRepository) Get(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.businesses[id]
	if !ok {
		return nil, appErrors.NewNotFound("business", id)
	}
	cp := *b
	return &cp, nil
}

func (r *BusinessRepository) UpdateSettings(ctx context.Context, b *model.Business) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.businesses[b.ID]
	if !ok {
		return appErrors.NewNotFound("business", b.ID)
	}
	now := time.Now()
	cur.Name = b.Name
	cur.GoogleReviewURL = b.GoogleReviewURL
	cur.LogoURL = b.LogoURL
	cur.SMSTemplate = b.SMSTemplate
	cur.EmailTemplate = b.EmailTemplate
	cur.AutoSendEnabled = b.AutoSendEnabled
	cur.AutoSendDelayHours = b.AutoSendDelayHours
	cur.SendMethod = b.SendMethod
	cur.UpdatedAt = &now
	b.UpdatedAt = &now
	return nil
}

func (r *BusinessRepository) ListAutoSendEnabled(ctx context.Context) ([]*model.Business, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.Business{}
	for _, b := range r.db.businesses {
		if b.AutoSendEnabled {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BusinessRepository) ConsumeSMS(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.businesses[id]
	if !ok {
		return false, appErrors.NewNotFound("business", id)
	}
	if b.MonthlySMSUsed >= b.MonthlySMSLimit {
		return false, nil
	}
	b.MonthlySMSUsed++
	return true, nil
}

func (r *BusinessRepository) RefundSMS(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b, ok := r.db.businesses[id]; ok && b.MonthlySMSUsed > 0 {
		b.MonthlySMSUsed--
	}
	return nil
}

func (r *BusinessRepository) SetPlan(ctx context.Context, id uuid.UUID, plan model.Plan, limit int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.businesses[id]
	if !ok {
		return appErrors.NewNotFound("business", id)
	}
	b.Plan = plan
	b.MonthlySMSLimit = limit
	return nil
}

func (r *BusinessRepository) ResetUsage(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, b := range r.db.businesses {
		if b.MonthlySMSUsed != 0 {
			b.MonthlySMSUsed = 0
			n++
		}
	}
	return n, nil
}

// ====================== Customers ======================

type CustomerRepository struct{ db *DB }

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.VisitDate.IsZero() {
		c.VisitDate = c.CreatedAt
	}
	cp := *c
	r.db.customers[c.ID] = &cp
	return nil
}

func (r *CustomerRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok || c.BusinessID != businessID {
		return nil, appErrors.NewNotFound("customer", id)
	}
	cp := *c
	return &cp, nil
}

func (r *CustomerRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.Customer, error) {
	return r.filter(businessID, func(c *model.Customer) bool { return true }, func(a, b *model.Customer) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (r *CustomerRepository) ListVisitedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]*model.Customer, error) {
	return r.filter(businessID, func(c *model.Customer) bool {
		return !c.VisitDate.Before(from) && !c.VisitDate.After(to)
	}, func(a, b *model.Customer) bool {
		return a.VisitDate.Before(b.VisitDate)
	}), nil
}

func (r *CustomerRepository) filter(businessID uuid.UUID, keep func(*model.Customer) bool, less func(a, b *model.Customer) bool) []*model.Customer {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.Customer{}
	for _, c := range r.db.customers {
		if c.BusinessID == businessID && keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *CustomerRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok || c.BusinessID != businessID {
		return appErrors.NewNotFound("customer", id)
	}
	delete(r.db.customers, id)
	for rid, req := range r.db.requests {
		if req.CustomerID == id {
			delete(r.db.requests, rid)
		}
	}
	return nil
}

// ====================== Review requests ======================

type ReviewRequestRepository struct{ db *DB }

func (r *ReviewRequestRepository) Create(ctx context.Context, req *model.ReviewRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.requests {
		if existing.UniqueCode == req.UniqueCode {
			return appErrors.ErrDuplicateCode
		}
		if req.Origin == model.OriginAuto && existing.Origin == model.OriginAuto &&
			existing.CustomerID == req.CustomerID && existing.Status != model.StatusFailed {
			return appErrors.ErrActiveRequestExists
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	r.db.requests[req.ID] = &cp
	return nil
}

func (r *ReviewRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReviewRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok {
		return nil, appErrors.NewNotFound("review request", id)
	}
	cp := *req
	return &cp, nil
}

func (r *ReviewRequestRepository) GetByCode(ctx context.Context, code string) (*model.ReviewRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requests {
		if req.UniqueCode == code {
			cp := *req
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("review request", code)
}

func (r *ReviewRequestRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requests {
		if req.UniqueCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *ReviewRequestRepository) HasActiveRequest(ctx context.Context, customerID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, req := range r.db.requests {
		if req.CustomerID == customerID && req.Status != model.StatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (r *ReviewRequestRepository) Update(ctx context.Context, req *model.ReviewRequest, prev model.RequestStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.requests[req.ID]
	if !ok || cur.Status != prev {
		return appErrors.ErrConcurrentUpdate
	}
	cur.Status = req.Status
	cur.LastError = req.LastError
	cur.SentAt = req.SentAt
	cur.OpenedAt = req.OpenedAt
	cur.ClickedAt = req.ClickedAt
	cur.ReviewedAt = req.ReviewedAt
	return nil
}

func (r *ReviewRequestRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]*model.ReviewRequest, error) {
	out := r.filter(func(req *model.ReviewRequest) bool { return req.BusinessID == businessID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReviewRequestRepository) ListCreatedSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]*model.ReviewRequest, error) {
	out := r.filter(func(req *model.ReviewRequest) bool {
		return req.BusinessID == businessID && !req.CreatedAt.Before(since)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRequestRepository) CampaignStats(ctx context.Context, campaignID uuid.UUID) (map[model.RequestStatus]int, error) {
	stats := map[model.RequestStatus]int{model.StatusPending: 0, model.StatusSent: 0, model.StatusFailed: 0}
	for _, req := range r.filter(func(req *model.ReviewRequest) bool {
		return req.CampaignID != nil && *req.CampaignID == campaignID
	}) {
		stats[req.Status]++
	}
	return stats, nil
}

func (r *ReviewRequestRepository) filter(keep func(*model.ReviewRequest) bool) []*model.ReviewRequest {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.ReviewRequest{}
	for _, req := range r.db.requests {
		if keep(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out
}

// ====================== Clicks and feedback ======================

type ClickRepository struct{ db *DB }

func (r *ClickRepository) Create(ctx context.Context, c *model.ReviewClick) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ClickedAt.IsZero() {
		c.ClickedAt = time.Now()
	}
	cp := *c
	r.db.clicks = append(r.db.clicks, &cp)
	return nil
}

func (r *ClickRepository) ListByRequests(ctx context.Context, requestIDs []uuid.UUID) ([]*model.ReviewClick, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		wanted[id] = struct{}{}
	}
	out := []*model.ReviewClick{}
	for _, c := range r.db.clicks {
		if _, ok := wanted[c.RequestID]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type FeedbackRepository struct{ db *DB }

func (r *FeedbackRepository) Create(ctx context.Context, f *model.PrivateFeedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.feedbacks {
		if existing.RequestID == f.RequestID {
			return appErrors.ErrDuplicateCode
		}
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	cp := *f
	r.db.feedbacks[f.ID] = &cp
	return nil
}

func (r *FeedbackRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.PrivateFeedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.feedbacks[id]
	if !ok || f.BusinessID != businessID {
		return nil, appErrors.NewNotFound("feedback", id)
	}
	cp := *f
	return &cp, nil
}

func (r *FeedbackRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.PrivateFeedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.feedbacks {
		if f.RequestID == requestID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FeedbackRepository) List(ctx context.Context, businessID uuid.UUID, filter model.FeedbackFilter) ([]*model.PrivateFeedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.PrivateFeedback{}
	for _, f := range r.db.feedbacks {
		if f.BusinessID != businessID {
			continue
		}
		if filter.UnreadOnly && f.IsRead {
			continue
		}
		if filter.UnresolvedOnly && f.IsResolved {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *FeedbackRepository) MarkRead(ctx context.Context, businessID, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.feedbacks[id]
	if !ok || f.BusinessID != businessID {
		return appErrors.NewNotFound("feedback", id)
	}
	f.IsRead = true
	return nil
}

func (r *FeedbackRepository) Resolve(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.feedbacks[id]
	if !ok || f.BusinessID != businessID {
		return appErrors.NewNotFound("feedback", id)
	}
	f.IsRead = true
	f.IsResolved = true
	if f.ResolvedAt == nil {
		f.ResolvedAt = &at
	}
	return nil
}

// ====================== Campaigns ======================

type CampaignRepository struct{ db *DB }

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	cp := *c
	r.db.campaigns[c.ID] = &cp
	return nil
}

func (r *CampaignRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok || c.BusinessID != businessID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (r *CampaignRepository) List(ctx context.Context, businessID uuid.UUID, offset, limit int, method, status string) ([]*model.Campaign, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	matched := []*model.Campaign{}
	for _, c := range r.db.campaigns {
		if c.BusinessID != businessID {
			continue
		}
		if method != "" && string(c.Method) != method {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *CampaignRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range r.db.campaigns {
		if c.Status == model.CampaignScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *CampaignRepository) MarkSending(ctx context.Context, businessID, id uuid.UUID, total int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok || c.BusinessID != businessID {
		return false, nil
	}
	if c.Status != model.CampaignDraft && c.Status != model.CampaignScheduled {
		return false, nil
	}
	now := time.Now()
	c.Status = model.CampaignSending
	c.TotalRecipients = total
	c.SentCount = 0
	c.FailedCount = 0
	c.UpdatedAt = &now
	return true, nil
}

func (r *CampaignRepository) MarkCompleted(ctx context.Context, id uuid.UUID, sent, failed int, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok || c.Status != model.CampaignSending {
		return appErrors.ErrCampaignState
	}
	c.Status = model.CampaignCompleted
	c.SentCount = sent
	c.FailedCount = failed
	c.CompletedAt = &at
	c.UpdatedAt = &at
	return nil
}

// ====================== QR codes ======================

type QRCodeRepository struct{ db *DB }

func (r *QRCodeRepository) Create(ctx context.Context, q *model.QRCode) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.qrCodes {
		if existing.ShortCode == q.ShortCode {
			return appErrors.ErrDuplicateCode
		}
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	cp := *q
	r.db.qrCodes[q.ID] = &cp
	return nil
}

func (r *QRCodeRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.QRCode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.QRCode{}
	for _, q := range r.db.qrCodes {
		if q.BusinessID == businessID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *QRCodeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, q := range r.db.qrCodes {
		if q.ShortCode == code {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ repository.BusinessRepositoryInterface      = (*BusinessRepository)(nil)
	_ repository.CustomerRepositoryInterface      = (*CustomerRepository)(nil)
	_ repository.ReviewRequestRepositoryInterface = (*ReviewRequestRepository)(nil)
	_ repository.ClickRepositoryInterface         = (*ClickRepository)(nil)
	_ repository.FeedbackRepositoryInterface      = (*FeedbackRepository)(nil)
	_ repository.CampaignRepositoryInterface      = (*CampaignRepository)(nil)
	_ repository.QRCodeRepositoryInterface        = (*QRCodeRepository)(nil)
)

package apiv1

import (
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"github.com/FreshTrackApp/FreshTrack/app/repository"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/enforcer"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlements"
	metrics "github.com/FreshTrackApp/FreshTrack/internal/pkg/metrics/counter"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/subscription"
)

// APIServer serves the v1 JSON API on top of the subscription service.
type APIServer struct {
	svc      *subscription.Service
	accounts repository.AccountRepository
	records  repository.RecordRepository
	validate *validator.Validate

	// uuidIndex remembers uuid -> id mappings so entitlement reads keep
	// working from cache while the database is unreachable.
	uuidIndex sync.Map
}

// NewAPIServer creates a new API server instance
func NewAPIServer(svc *subscription.Service, accounts repository.AccountRepository, records repository.RecordRepository) *APIServer {
	return &APIServer{
		svc:      svc,
		accounts: accounts,
		records:  records,
		validate: validator.New(),
	}
}

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=150"`
	RawTier   string `json:"raw_tier" validate:"omitempty,oneof=free pro pro_plus"`
	AutoRenew bool   `json:"auto_renew"`
}

// PostAccount creates a new account
func (s *APIServer) PostAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	tier := string(entitlements.NormalizeTier(req.RawTier))
	account := &models.Account{Name: req.Name, RawTier: tier, AutoRenew: req.AutoRenew}
	if err := s.accounts.Create(account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "could not create account"})
	}
	s.uuidIndex.Store(account.UUID, account.ID)

	return c.Status(fiber.StatusCreated).JSON(account)
}

// GetEntitlement returns the effective entitlement, cache-first
func (s *APIServer) GetEntitlement(c *fiber.Ctx) error {
	accountID, err := s.resolveAccountID(c.Params("uuid"))
	if err != nil {
		return s.accountLookupError(c, err)
	}

	ent := s.svc.GetEffectiveEntitlement(c.UserContext(), accountID)
	return c.JSON(ent)
}

// GetCanAdd reports whether the account may create another record
func (s *APIServer) GetCanAdd(c *fiber.Ctx) error {
	accountID, err := s.resolveAccountID(c.Params("uuid"))
	if err != nil {
		return s.accountLookupError(c, err)
	}

	allowed, reason := s.svc.CanAddRecord(c.UserContext(), accountID)
	if reason == subscription.ReasonLimitReached {
		// Buffered in Redis, flushed to the accounts table in batches.
		_ = metrics.AddQuotaDenied(accountID)
	}
	resp := fiber.Map{"allowed": allowed}
	if reason != "" {
		resp["reason_code"] = reason
	}
	return c.JSON(resp)
}

// UpdateTierRequest is the body of PUT /accounts/:uuid/tier
type UpdateTierRequest struct {
	Tier       string     `json:"tier" validate:"required,oneof=free pro pro_plus"`
	ValidUntil *time.Time `json:"valid_until"`
	AutoRenew  bool       `json:"auto_renew"`
}

// PutTier persists a tier change and reconciles entitlement and locks
func (s *APIServer) PutTier(c *fiber.Ctx) error {
	accountID, err := s.resolveAccountID(c.Params("uuid"))
	if err != nil {
		return s.accountLookupError(c, err)
	}

	var req UpdateTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	ent, err := s.svc.SetTier(c.UserContext(), accountID, entitlements.Tier(req.Tier), req.ValidUntil, req.AutoRenew)
	if err != nil {
		if errors.Is(err, entitlements.ErrRemoteUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "remote_unavailable", "message": "tier update requires connectivity"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "tier update failed"})
	}
	return c.JSON(ent)
}

// PostEnforce runs a plan-limit enforcement pass for the account
func (s *APIServer) PostEnforce(c *fiber.Ctx) error {
	accountID, err := s.resolveAccountID(c.Params("uuid"))
	if err != nil {
		return s.accountLookupError(c, err)
	}

	result, err := s.svc.EnforceNow(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, enforcer.ErrInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "in_flight", "message": "enforcement pass already running"})
		}
		if errors.Is(err, entitlements.ErrUnknownAccount) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_account", "message": "account not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "enforcement failed"})
	}

	resp := fiber.Map{
		"plan":   result.Plan,
		"total":  result.Total,
		"locked": result.Locked,
	}
	if result.Limit != nil {
		resp["limit"] = *result.Limit
	}
	return c.JSON(resp)
}

// CreateRecordRequest is the body of POST /accounts/:uuid/records
type CreateRecordRequest struct {
	Name      string    `json:"name" validate:"required,min=1,max=255"`
	Barcode   string    `json:"barcode" validate:"max=64"`
	Quantity  int       `json:"quantity" validate:"min=0"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// PostRecord creates a record, gated by the plan quota
func (s *APIServer) PostRecord(c *fiber.Ctx) error {
	accountID, err := s.resolveAccountID(c.Params("uuid"))
	if err != nil {
		return s.accountLookupError(c, err)
	}

	var req CreateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	allowed, reason := s.svc.CanAddRecord(c.UserContext(), accountID)
	if !allowed {
		if reason == subscription.ReasonLimitReached {
			_ = metrics.AddQuotaDenied(accountID)
		}
		status := fiber.StatusForbidden
		if reason == subscription.ReasonUnknownAccount {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{"error": reason, "message": "record limit gate rejected the request"})
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	record := &models.Record{
		AccountID: accountID,
		Name:      req.Name,
		Barcode:   req.Barcode,
		Quantity:  quantity,
		ExpiresAt: req.ExpiresAt,
		Status:    models.RecordStatusActive,
	}
	if err := s.records.Create(record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "could not create record"})
	}
	_ = metrics.AddRecordAdded(accountID)

	// Counts changed; refresh so the cached CanAdd stays honest.
	if _, err := s.svc.Refresh(c.UserContext(), accountID); err != nil && !errors.Is(err, entitlements.ErrRemoteUnavailable) {
		// Logged inside the service; the record itself was created.
		_ = err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// PostResolveRecord marks a record as used up or discarded
func (s *APIServer) PostResolveRecord(c *fiber.Ctx) error {
	record, err := s.records.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "record not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "record lookup failed"})
	}

	if err := s.records.MarkResolved(record.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "could not resolve record"})
	}

	// Resolving frees quota; re-enforce so a previously locked record
	// can slide back into the unlocked window.
	if _, err := s.svc.EnforceNow(c.UserContext(), record.AccountID); err != nil && !errors.Is(err, enforcer.ErrInFlight) {
		_ = err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// resolveAccountID maps a public account UUID to its internal id,
// preferring the in-memory index so cache reads survive outages.
func (s *APIServer) resolveAccountID(uuid string) (uint, error) {
	account, err := s.accounts.GetByUUID(uuid)
	if err == nil {
		s.uuidIndex.Store(account.UUID, account.ID)
		return account.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		if id, ok := s.uuidIndex.Load(uuid); ok {
			return id.(uint), nil
		}
	}
	return 0, err
}

func (s *APIServer) accountLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_account", "message": "account not found"})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "remote_unavailable", "message": "account lookup failed"})
}

package jobs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/middleware"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/model"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/ws"
)

const (
	queryMinLen    = 10
	queryMaxLen    = 256
	contractMaxLen = 10000
)

var (
	queryPattern = regexp.MustCompile(`^[a-zA-Z0-9\s.,?!\-'":;()/@#$%&+=]+$`)
	postPattern  = regexp.MustCompile(`^https?://(twitter\.com|x\.com)/[a-zA-Z0-9_]+/status/[0-9]+.*$`)
)

type Handler struct {
	store *Store
	queue *Queue
}

func NewHandler(store *Store, queue *Queue) *Handler {
	return &Handler{store: store, queue: queue}
}

type paymentFields struct {
	PayerAddress string `json:"payer_address"`
	TxHash       string `json:"tx_hash"`
	Network      string `json:"network"`
}

type createQueryRequest struct {
	Query string `json:"query"`
	paymentFields
}

type createDisputeRequest struct {
	Contract       string `json:"contract"`
	DisputeDetails string `json:"dispute_details"`
	paymentFields
}

type createPostRequest struct {
	PostURL string `json:"post_url"`
	paymentFields
}

// CreateQuery accepts a factual yes/no question.
func (h *Handler) CreateQuery(c *fiber.Ctx) error {
	var req createQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json body")
	}

	q := strings.TrimSpace(req.Query)
	if len(q) < queryMinLen || len(q) > queryMaxLen {
		return badRequest(c, "query must be between 10 and 256 characters")
	}
	if !queryPattern.MatchString(q) {
		return badRequest(c, "query contains invalid characters")
	}

	return h.create(c, model.TypeFactual, q, "", req.paymentFields)
}

// CreateDispute accepts a contract plus the dispute details around it.
func (h *Handler) CreateDispute(c *fiber.Ctx) error {
	var req createDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json body")
	}

	contract := strings.TrimSpace(req.Contract)
	details := strings.TrimSpace(req.DisputeDetails)
	if contract == "" || details == "" {
		return badRequest(c, "contract and dispute_details are required")
	}
	if len(contract) > contractMaxLen || len(details) > contractMaxLen {
		return badRequest(c, "contract or dispute_details too long")
	}

	return h.create(c, model.TypeDispute, details, contract, req.paymentFields)
}

// CreatePost accepts an X/Twitter status URL for credibility analysis.
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json body")
	}

	url := strings.TrimSpace(req.PostURL)
	if !postPattern.MatchString(url) {
		return badRequest(c, "post_url must be a twitter.com or x.com status link")
	}

	return h.create(c, model.TypeMedia, url, "", req.paymentFields)
}

func (h *Handler) create(c *fiber.Ctx, qt model.QueryType, query, contract string, pay paymentFields) error {
	rid, _ := c.Locals(middleware.ReqIDKey).(string)
	log := telemetry.L().With().Str("req_id", rid).Str("query_type", string(qt)).Logger()

	job := &model.Job{
		ID:           uuid.New().String(),
		QueryType:    qt,
		Query:        query,
		Contract:     nullString(contract),
		Status:       model.StatusPending,
		PayerAddress: nullString(pay.PayerAddress),
		TxHash:       nullString(pay.TxHash),
		Network:      nullString(pay.Network),
	}
	if err := h.store.Create(job); err != nil {
		log.Error().Err(err).Msg("job_insert_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "db error"})
	}
	if err := h.queue.Enqueue(c.Context(), Task{JobID: job.ID}); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("job_enqueue_failed")
		_ = h.store.SetError(job.ID, "enqueue failed: "+err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "queue error"})
	}

	log.Info().Str("job_id", job.ID).Msg("job_created")
	ws.BroadcastJobCreated(job.ID, string(qt))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     job.ID,
		"status": model.StatusPending,
	})
}

// GetJob returns the polling document. The consensus result is embedded
// verbatim once the job completes.
func (h *Handler) GetJob(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "invalid job id")
	}

	job, err := h.store.Get(id)
	if errors.Is(err, ErrJobNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "db error"})
	}

	doc := fiber.Map{
		"id":         job.ID,
		"query_type": job.QueryType,
		"query":      job.Query,
		"status":     job.Status,
		"attempts":   job.Attempts,
		"created_at": job.CreatedAt,
	}
	if job.CompletedAt.Valid {
		doc["completed_at"] = job.CompletedAt.Time
	}
	if job.Result.Valid {
		doc["result"] = json.RawMessage(job.Result.String)
	}
	if job.LastError.Valid {
		doc["error"] = job.LastError.String
	}
	if job.PayerAddress.Valid {
		doc["payer_address"] = job.PayerAddress.String
	}
	if job.TxHash.Valid {
		doc["tx_hash"] = job.TxHash.String
	}
	if job.Network.Valid {
		doc["network"] = job.Network.String
	}
	return c.JSON(doc)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/notify"
	"github.com/hostfolio-ai/guest-knowledge/internal/reply"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

// Stage names the steps of the ingestion pipeline.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageNormalize Stage = "normalize"
	StageStore     Stage = "store"
	StageSuggest   Stage = "suggest"
	StageNotify    Stage = "notify"
)

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// StageResult records what one stage did. The aggregated list is the
// first-class "which stages ran" contract of the pipeline.
type StageResult struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// IngestOutcome is the aggregated result of one ingestion.
type IngestOutcome struct {
	Item            *model.KnowledgeItem
	KnowledgeItemID string
	SuggestedReply  *reply.Draft
	Stages          []StageResult
}

// Response maps the outcome onto the webhook response contract: the item id
// appears only if storage succeeded, has_suggested_reply only reflects
// whether a draft was actually produced.
func (o *IngestOutcome) Response() model.IngestResponse {
	return model.IngestResponse{
		Status:            "received",
		KnowledgeItemID:   o.KnowledgeItemID,
		HasSuggestedReply: o.SuggestedReply != nil,
	}
}

// ValidationError is a malformed-input failure, tied to the first violated
// field so webhook callers get deterministic messages.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateIngestRequest checks payload shape in fixed field order:
// schema_version, messages, then per-message id, from, date.
func ValidateIngestRequest(req *model.IngestRequest) *ValidationError {
	if req.SchemaVersion == "" {
		return &ValidationError{Field: "schema_version", Message: "missing required field: schema_version"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "messages must be a non-empty array"}
	}
	for i, msg := range req.Messages {
		if msg.ID == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].id", i),
				Message: fmt.Sprintf("messages[%d] missing required field: id", i),
			}
		}
		if msg.From == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].from", i),
				Message: fmt.Sprintf("messages[%d] missing required field: from", i),
			}
		}
		if msg.Date == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].date", i),
				Message: fmt.Sprintf("messages[%d] missing required field: date", i),
			}
		}
	}
	return nil
}

// IngestService sequences validate, normalize, store, suggest, notify. The
// last three are best-effort: a dependency outage degrades the response
// instead of failing the request.
type IngestService struct {
	normalize *NormalizeService
	store     *store.KnowledgeStore
	replies   reply.Generator // nil disables the suggest stage
	notifier  notify.Notifier // nil disables the notify stage

	hostEmail     string
	defaultSource string
	logger        *logger.Logger
}

// NewIngestService wires the ingestion pipeline. replies and notifier may be
// nil; the corresponding stages then report skipped.
func NewIngestService(
	normalize *NormalizeService,
	knowledgeStore *store.KnowledgeStore,
	replies reply.Generator,
	notifier notify.Notifier,
	hostEmail, defaultSource string,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		normalize:     normalize,
		store:         knowledgeStore,
		replies:       replies,
		notifier:      notifier,
		hostEmail:     hostEmail,
		defaultSource: defaultSource,
		logger:        log,
	}
}

// Ingest runs the pipeline for one webhook payload. A ValidationError means
// the request never entered the pipeline; any other return is a success from
// the caller's point of view, with the outcome describing which stages ran.
func (s *IngestService) Ingest(ctx context.Context, req *model.IngestRequest, source, propertyID, bookingID string) (*IngestOutcome, error) {
	outcome := &IngestOutcome{}

	if verr := ValidateIngestRequest(req); verr != nil {
		metrics.IngestStageTotal.WithLabelValues(string(StageValidate), string(StageFailed)).Inc()
		metrics.IngestTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, verr
	}
	outcome.record(StageValidate, StageOK, nil)

	if source == "" {
		source = s.defaultSource
	}
	item := s.normalize.NormalizePayload(req, source, propertyID, bookingID)
	outcome.Item = item
	outcome.record(StageNormalize, StageOK, nil)

	platform := item.Platform
	if platform == "" {
		platform = "none"
	}

	if id, err := s.store.Store(ctx, item); err != nil {
		s.logger.Error("knowledge store failed, continuing degraded",
			zap.String("external_thread_id", item.ExternalThreadID),
			zap.Error(err))
		outcome.record(StageStore, StageFailed, err)
	} else {
		outcome.KnowledgeItemID = id
		outcome.record(StageStore, StageOK, nil)
	}

	s.suggest(ctx, outcome)
	s.notify(ctx, outcome)

	metrics.IngestTotal.WithLabelValues(platform, "received").Inc()
	return outcome, nil
}

func (s *IngestService) suggest(ctx context.Context, outcome *IngestOutcome) {
	item := outcome.Item
	if s.replies == nil || item.Normalized.LatestGuestMessage == nil {
		outcome.record(StageSuggest, StageSkipped, nil)
		return
	}

	// Property context is optional input; a read failure only costs the
	// draft its grounding.
	propertyContext := ""
	if item.PropertyID != "" {
		pc, err := s.store.GetPropertyContext(ctx, item.PropertyID)
		if err != nil {
			s.logger.Warn("property context read failed",
				zap.String("property_id", item.PropertyID),
				zap.Error(err))
		} else {
			propertyContext = pc
		}
	}

	draft, err := s.replies.Generate(ctx, item.Normalized, propertyContext)
	if err != nil {
		s.logger.Error("reply generation failed, continuing degraded", zap.Error(err))
		outcome.record(StageSuggest, StageFailed, err)
		return
	}
	outcome.SuggestedReply = draft
	outcome.record(StageSuggest, StageOK, nil)
}

func (s *IngestService) notify(ctx context.Context, outcome *IngestOutcome) {
	if s.notifier == nil {
		outcome.record(StageNotify, StageSkipped, nil)
		return
	}

	item := outcome.Item
	subject := "New guest message"
	if item.Normalized.Subject != "" {
		subject = "New guest message: " + item.Normalized.Subject
	}

	notification := notify.Notification{
		Recipient: s.hostEmail,
		Subject:   subject,
		Metadata: map[string]string{
			"knowledge_item_id": outcome.KnowledgeItemID,
			"property_id":       item.PropertyID,
			"booking_id":        item.BookingID,
			"platform":          item.Platform,
		},
	}
	if outcome.SuggestedReply != nil {
		notification.Draft = outcome.SuggestedReply.Text
	}

	if _, err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.Error("host notification failed, continuing degraded", zap.Error(err))
		outcome.record(StageNotify, StageFailed, err)
		return
	}
	outcome.record(StageNotify, StageOK, nil)
}

func (o *IngestOutcome) record(stage Stage, status StageStatus, err error) {
	r := StageResult{Stage: stage, Status: status}
	if err != nil {
		r.Error = err.Error()
	}
	o.Stages = append(o.Stages, r)
	metrics.IngestStageTotal.WithLabelValues(string(stage), string(status)).Inc()
}

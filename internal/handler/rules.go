package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/service"
	"github.com/shopspring/decimal"
)

// RuleReader resolves the limits in force for an actor.
type RuleReader interface {
	EffectiveRules(ctx context.Context, actor domain.Actor, number *int) (*service.EffectiveRules, error)
}

// RuleWriter stores new restriction rules.
type RuleWriter interface {
	Create(ctx context.Context, rule domain.RestrictionRule) (*domain.RestrictionRule, error)
}

// RuleHandler handles effective-rule lookups and rule administration.
type RuleHandler struct {
	reader RuleReader
	writer RuleWriter
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(reader RuleReader, writer RuleWriter) *RuleHandler {
	return &RuleHandler{reader: reader, writer: writer}
}

// Effective handles GET /rules/effective?bank_id=&sales_point_id=&seller_id=&number=.
func (h *RuleHandler) Effective(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var number *int
	if raw := r.URL.Query().Get("number"); raw != "" {
		n, ok := domain.ParseBetNumber(raw)
		if !ok {
			RespondError(w, domain.ErrValidation("number must be two digits 00-99"))
			return
		}
		number = &n
	}

	rules, err := h.reader.EffectiveRules(r.Context(), actor, number)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rules)
}

type ruleInput struct {
	Kind            domain.RuleKind  `json:"kind"`
	Scope           domain.RuleScope `json:"scope"`
	Number          *int             `json:"number,omitempty"`
	MaxAmountPerBet *decimal.Decimal `json:"max_amount_per_bet,omitempty"`
	MaxAmountPerDay *decimal.Decimal `json:"max_amount_per_day,omitempty"`
	CutoffMinutes   *int             `json:"cutoff_minutes,omitempty"`
	AppliesToDate   string           `json:"applies_to_date,omitempty"` // YYYY-MM-DD
	AppliesToHour   *int             `json:"applies_to_hour,omitempty"`
}

func (in ruleInput) toRule() (domain.RestrictionRule, error) {
	rule := domain.RestrictionRule{
		Kind:          in.Kind,
		Scope:         in.Scope,
		Number:        in.Number,
		CutoffMinutes: in.CutoffMinutes,
		AppliesToHour: in.AppliesToHour,
	}
	var err error
	if rule.MaxAmountPerBet, err = parseOptionalAmount("max_amount_per_bet", in.MaxAmountPerBet); err != nil {
		return rule, err
	}
	if rule.MaxAmountPerDay, err = parseOptionalAmount("max_amount_per_day", in.MaxAmountPerDay); err != nil {
		return rule, err
	}
	if in.AppliesToDate != "" {
		d, err := time.Parse(time.DateOnly, in.AppliesToDate)
		if err != nil {
			return rule, domain.ErrValidation("applies_to_date must be YYYY-MM-DD")
		}
		rule.AppliesToDate = &d
	}
	return rule, nil
}

// Create handles POST /admin/rules.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in ruleInput
	if err := DecodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	rule, err := in.toRule()
	if err != nil {
		RespondError(w, err)
		return
	}

	created, err := h.writer.Create(r.Context(), rule)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

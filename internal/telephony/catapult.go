package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"catapult-platform/pkg/catapult"
)

// Callback paths mounted by CallbackHandler.
const (
	VoiceCallbackPath     = "/webhooks/catapult/voice"
	MessagingCallbackPath = "/webhooks/catapult/messaging"
)

// CatapultProvider implements TelephonyProvider on the Catapult REST API.
// Calls and messages it creates are tagged with the workspace id so their
// callbacks can be attributed.
type CatapultProvider struct {
	client        *catapult.Client
	router        InboundRouter
	callbackBase  string
	applicationID string
	log           *slog.Logger

	// newBackOff builds the retry policy for read operations.
	newBackOff func() backoff.BackOff
}

type CatapultOption func(*CatapultProvider)

// WithCallbackBaseURL sets the public URL prefix Catapult posts callbacks to.
func WithCallbackBaseURL(u string) CatapultOption {
	return func(p *CatapultProvider) { p.callbackBase = strings.TrimRight(u, "/") }
}

// WithApplicationID assigns bought numbers to a Catapult application.
func WithApplicationID(id string) CatapultOption {
	return func(p *CatapultProvider) { p.applicationID = id }
}

func WithProviderLogger(l *slog.Logger) CatapultOption {
	return func(p *CatapultProvider) { p.log = l }
}

// WithRetryPolicy replaces the exponential retry policy used for reads.
func WithRetryPolicy(f func() backoff.BackOff) CatapultOption {
	return func(p *CatapultProvider) { p.newBackOff = f }
}

func NewCatapultProvider(client *catapult.Client, router InboundRouter, opts ...CatapultOption) *CatapultProvider {
	p := &CatapultProvider{
		client: client,
		router: router,
		log:    slog.Default(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *CatapultProvider) Name() string { return "catapult" }

// HealthCheck verifies credentials and reachability by reading the account.
func (p *CatapultProvider) HealthCheck(ctx context.Context) error {
	return p.retry(ctx, "health check", func() error {
		_, err := p.client.Account.Get(ctx)
		return err
	})
}

func (p *CatapultProvider) HandleInboundCall(ctx context.Context, req InboundCallRequest) (InboundCallResult, error) {
	if req.WorkspaceID == "" {
		return InboundCallResult{}, ErrWorkspaceRequired
	}
	if p.router == nil {
		return InboundCallResult{}, errors.New("telephony: catapult router is nil")
	}
	return p.router.RouteInboundCall(ctx, req)
}

// BuyNumber allocates DesiredNumber, or orders the first match from
// inventory. The number is named after the workspace.
func (p *CatapultProvider) BuyNumber(ctx context.Context, req BuyNumberRequest) (BuyNumberResult, error) {
	if req.WorkspaceID == "" {
		return BuyNumberResult{}, ErrWorkspaceRequired
	}

	var number, id string
	switch {
	case req.DesiredNumber != "":
		created, err := p.client.PhoneNumbers.Create(ctx, catapult.PhoneNumberRequest{
			Number:        req.DesiredNumber,
			Name:          req.WorkspaceID,
			ApplicationID: p.applicationID,
		})
		if err != nil {
			return BuyNumberResult{}, fmt.Errorf("telephony: allocate %s: %w", req.DesiredNumber, err)
		}
		number, id = req.DesiredNumber, created
	default:
		ordered, err := p.order(ctx, req)
		if err != nil {
			return BuyNumberResult{}, err
		}
		number, id = ordered.Number, ordered.ID
		if err := p.client.PhoneNumbers.Update(ctx, id, catapult.PhoneNumberRequest{
			Name:          req.WorkspaceID,
			ApplicationID: p.applicationID,
		}); err != nil {
			return BuyNumberResult{}, fmt.Errorf("telephony: assign %s: %w", number, err)
		}
	}
	return BuyNumberResult{WorkspaceID: req.WorkspaceID, Number: number, ProviderNumberID: id}, nil
}

func (p *CatapultProvider) order(ctx context.Context, req BuyNumberRequest) (catapult.OrderedNumber, error) {
	var (
		nums []catapult.OrderedNumber
		err  error
	)
	switch catapult.NumberType(req.NumberType) {
	case "", catapult.NumberTypeLocal:
		if req.AreaCode == "" && req.State == "" {
			return catapult.OrderedNumber{}, errors.New("telephony: area_code or state required for local numbers")
		}
		nums, err = p.client.AvailableNumbers.OrderLocal(ctx, catapult.LocalNumberQuery{
			AreaCode: req.AreaCode,
			State:    req.State,
			Quantity: 1,
		})
	case catapult.NumberTypeTollFree:
		nums, err = p.client.AvailableNumbers.OrderTollFree(ctx, catapult.TollFreeNumberQuery{Quantity: 1})
	default:
		return catapult.OrderedNumber{}, fmt.Errorf("telephony: unknown number type %q", req.NumberType)
	}
	if err != nil {
		return catapult.OrderedNumber{}, fmt.Errorf("telephony: order number: %w", err)
	}
	if len(nums) == 0 {
		return catapult.OrderedNumber{}, errors.New("telephony: no numbers available")
	}
	return nums[0], nil
}

// ReleaseNumber returns a number to inventory. Releasing an unknown number
// reports Released=false without error.
func (p *CatapultProvider) ReleaseNumber(ctx context.Context, req ReleaseNumberRequest) (ReleaseNumberResult, error) {
	if req.WorkspaceID == "" {
		return ReleaseNumberResult{}, ErrWorkspaceRequired
	}
	key := req.ProviderNumberID
	if key == "" {
		key = req.Number
	}
	if key == "" {
		return ReleaseNumberResult{}, errors.New("telephony: number or provider_number_id required")
	}

	err := p.client.PhoneNumbers.Delete(ctx, key)
	switch {
	case catapult.IsNotFound(err):
		return ReleaseNumberResult{WorkspaceID: req.WorkspaceID}, nil
	case err != nil:
		return ReleaseNumberResult{}, fmt.Errorf("telephony: release %s: %w", key, err)
	}
	return ReleaseNumberResult{WorkspaceID: req.WorkspaceID, Released: true}, nil
}

func (p *CatapultProvider) StartRecording(ctx context.Context, req StartRecordingRequest) (StartRecordingResult, error) {
	if req.WorkspaceID == "" {
		return StartRecordingResult{}, ErrWorkspaceRequired
	}
	if err := p.client.Calls.SetRecording(ctx, req.ProviderCallID, true); err != nil {
		return StartRecordingResult{}, fmt.Errorf("telephony: start recording: %w", err)
	}
	return StartRecordingResult{WorkspaceID: req.WorkspaceID, Started: true}, nil
}

// FetchCDR lists the workspace's calls that started inside the window.
// Only calls tagged with the workspace id are returned.
func (p *CatapultProvider) FetchCDR(ctx context.Context, req FetchCDRRequest) (FetchCDRResult, error) {
	if req.WorkspaceID == "" {
		return FetchCDRResult{}, ErrWorkspaceRequired
	}
	res := FetchCDRResult{WorkspaceID: req.WorkspaceID, Records: []CDR{}}

	if req.ProviderCallID != "" {
		var call *catapult.Call
		err := p.retry(ctx, "get call", func() error {
			var err error
			call, err = p.client.Calls.Get(ctx, req.ProviderCallID)
			return err
		})
		if err != nil {
			return FetchCDRResult{}, err
		}
		if call.Tag == req.WorkspaceID {
			res.Records = append(res.Records, toCDR(*call))
		}
		return res, nil
	}

	pager := p.client.Calls.Pages(catapult.CallQuery{Size: 1000})
	for pager.HasNext() {
		var page []catapult.Call
		err := p.retry(ctx, "list calls", func() error {
			var err error
			page, err = pager.Next(ctx)
			return err
		})
		if err != nil {
			return FetchCDRResult{}, err
		}
		for _, c := range page {
			if c.Tag != req.WorkspaceID || !inWindow(c.StartTime, req.From, req.To) {
				continue
			}
			res.Records = append(res.Records, toCDR(c))
		}
	}
	return res, nil
}

func (p *CatapultProvider) StartOutboundCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error) {
	if req.WorkspaceID == "" {
		return OutboundCallResult{}, ErrWorkspaceRequired
	}
	id, err := p.client.Calls.Create(ctx, catapult.CreateCallRequest{
		From:             req.From,
		To:               req.To,
		CallTimeout:      req.TimeoutSeconds,
		CallbackURL:      p.callbackURL(VoiceCallbackPath),
		RecordingEnabled: req.RecordingEnabled,
		Tag:              req.WorkspaceID,
	})
	if err != nil {
		return OutboundCallResult{}, fmt.Errorf("telephony: create call: %w", err)
	}
	return OutboundCallResult{WorkspaceID: req.WorkspaceID, ProviderCallID: id}, nil
}

func (p *CatapultProvider) SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResult, error) {
	if req.WorkspaceID == "" {
		return SendMessageResult{}, ErrWorkspaceRequired
	}
	id, err := p.client.Messages.Send(ctx, catapult.SendMessageRequest{
		From:        req.From,
		To:          req.To,
		Text:        req.Text,
		Media:       req.Media,
		CallbackURL: p.callbackURL(MessagingCallbackPath),
		Tag:         req.WorkspaceID,
	})
	if err != nil {
		return SendMessageResult{}, fmt.Errorf("telephony: send message: %w", err)
	}
	return SendMessageResult{WorkspaceID: req.WorkspaceID, ProviderMessageID: id}, nil
}

func (p *CatapultProvider) callbackURL(path string) string {
	if p.callbackBase == "" {
		return ""
	}
	return p.callbackBase + path
}

// retry runs op until it succeeds, fails with a non-retryable error, or
// the policy gives up.
func (p *CatapultProvider) retry(ctx context.Context, what string, op func() error) error {
	b := backoff.WithContext(p.newBackOff(), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !catapult.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		p.log.Warn("catapult read failed, retrying", "op", what, "err", err, "wait_ms", wait.Milliseconds())
	})
}

func toCDR(c catapult.Call) CDR {
	return CDR{
		ProviderCallID:  c.ID,
		From:            c.From,
		To:              c.To,
		Direction:       c.Direction,
		State:           string(c.State),
		StartedAt:       c.StartTime,
		EndedAt:         c.EndTime,
		DurationSeconds: c.ChargeableDuration,
	}
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

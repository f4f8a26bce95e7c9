// Package transferservice manages business logic layer of transfers.
//
// Every created transfer is processed by its own goroutine, which advances it
// through validation, clearing and settlement and is the only writer of its
// processing steps and messages.
package transferservice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by transfer service layer.
type Repo interface {
	Add(ctx context.Context, t domain.Transfer) error
	Get(ctx context.Context, id string) (domain.Transfer, error)
	List(ctx context.Context) ([]domain.TransferSummary, error)
	Update(ctx context.Context, id string, fn func(t *domain.Transfer) error) (domain.Transfer, error)
}

// Ledger provides the account operations needed to settle a transfer.
type Ledger interface {
	ResolveParties(ctx context.Context, t domain.Transfer) (debtor, creditor domain.Account, err error)
	Get(ctx context.Context, id string) (domain.Account, error)
	Debit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error)
	Credit(ctx context.Context, id string, amount decimal.Decimal, transferID, description string) (domain.AccountEntry, error)
}

// Archiver stores transfers that reached a terminal status.
type Archiver interface {
	Save(ctx context.Context, t domain.Transfer) error
}

// Option configures the Service.
type Option func(s *Service)

// WithDelayer sets the stage delay. The default is NoDelay.
func WithDelayer(d Delayer) Option {
	return func(s *Service) {
		s.delayer = d
	}
}

// WithCancelPolicy sets the simulated operator cancellation policy.
func WithCancelPolicy(p CancelPolicy) Option {
	return func(s *Service) {
		s.cancel = p
	}
}

// WithArchiver stores every finished transfer in a.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the generator of transfer, return and reversal ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo     Repo
	ledger   Ledger
	delayer  Delayer
	cancel   CancelPolicy
	archiver Archiver
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New return transfer service struct to manage transfer bussines logic.
func New(tr Repo, ledger Ledger, opts ...Option) *Service {
	ctx, stop := context.WithCancel(context.Background())

	s := &Service{
		repo:     tr,
		ledger:   ledger,
		delayer:  NoDelay{},
		cancel:   ManualCancel{},
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		ctx:      ctx,
		stop:     stop,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create registers a PENDING transfer and starts processing it in the
// background. It returns without waiting for any stage.
func (s *Service) Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)
	now := s.now()

	t := domain.Transfer{
		ID:                s.newID(),
		DebtorName:        arg.DebtorName,
		InstitutionNumber: arg.InstitutionNumber,
		TransitNumber:     arg.TransitNumber,
		AccountNumber:     arg.AccountNumber,
		CreditorName:      arg.CreditorName,
		CreditorIBAN:      arg.CreditorIBAN,
		CreditorBIC:       arg.CreditorBIC,
		Amount:            arg.Amount,
		Currency:          arg.Currency,
		Purpose:           arg.Purpose,
		Status:            domain.StatusPending,
		CreatedAt:         now,
	}
	t.AddStep(StepInitiated, domain.StatusPending, "Wire transfer request received from "+t.DebtorName, now)

	if err := s.repo.Add(ctx, t); err != nil {
		l.Error().Err(err).Str("transfer_id", t.ID).Send()
		return domain.Transfer{}, err
	}

	transfersCreated.Inc()

	tl := l.With().Str("transfer_id", t.ID).Logger()
	tl.Info().Str("amount", t.Amount.StringFixed(2)).Str("currency", t.Currency).Msg("transfer created")

	s.start(t.ID, tl)

	return t, nil
}

func (s *Service) start(id string, l zerolog.Logger) {
	s.wg.Add(1)
	transfersInFlight.Inc()

	go func() {
		defer s.wg.Done()
		defer transfersInFlight.Dec()

		s.run(l.WithContext(s.ctx), id)
	}()
}

// Get returns the transfer with the current state of its ledger accounts.
func (s *Service) Get(ctx context.Context, id string) (domain.TransferDetails, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.TransferDetails{}, err
	}

	d := domain.TransferDetails{Transfer: t}

	if t.DebtorAccountID != "" {
		if acc, err := s.ledger.Get(ctx, t.DebtorAccountID); err == nil {
			d.DebtorAccount = &acc
		}
	}

	if t.CreditorAccountID != "" {
		if acc, err := s.ledger.Get(ctx, t.CreditorAccountID); err == nil {
			d.CreditorAccount = &acc
		}
	}

	return d, nil
}

// List returns the summaries of all transfers, most recent first.
func (s *Service) List(ctx context.Context) ([]domain.TransferSummary, error) {
	return s.repo.List(ctx)
}

// Cancel requests the cancellation of a transfer. The transfer task honours
// the request at its next checkpoint, provided the transfer has not claimed
// settlement by then. Repeated requests keep the first reason.
func (s *Service) Cancel(ctx context.Context, id, reason string) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	if reason == "" {
		reason = "Cancelled at customer request"
	}

	t, err := s.repo.Update(ctx, id, func(t *domain.Transfer) error {
		if t.SettlementClaimed || t.Status == domain.StatusSettling {
			return domain.ErrNotCancellable
		}

		if !t.CancelRequested {
			t.CancelRequested = true
			t.CancelReason = reason
		}

		return nil
	})

	switch {
	case errors.Is(err, domain.ErrTerminalTransfer):
		err = domain.ErrNotCancellable
	case err != nil:
	default:
		l.Info().Str("transfer_id", id).Str("reason", t.CancelReason).Msg("cancellation requested")
		return t, nil
	}

	l.Info().Err(err).Str("transfer_id", id).Send()

	return t, err
}

// Wait blocks until every started transfer has reached a terminal status.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown interrupts the stage delays of in-flight transfers, which then
// fail, and waits for their tasks to finish or for ctx to be done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

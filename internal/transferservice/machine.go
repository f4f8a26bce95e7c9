package transferservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/internal/pacscodec"
	"github.com/go-petr/lynx-wire/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Processing step names.
const (
	StepInitiated         = "Transfer initiated"
	StepValidation        = "PACS.008 message validation"
	StepValidationFailed  = "Validation failed"
	StepPacs008Issued     = "PACS.008 message generated"
	StepRouting           = "Account resolution and routing"
	StepDebited           = "Funds debited from originator account"
	StepInsufficientFunds = "Insufficient funds"
	StepCredited          = "Funds credited to beneficiary"
	StepCancelled         = "cancelled"
	StepProcessingError   = "Processing error"
)

// Finish reasons reported to metrics.
const (
	reasonSettled      = "settled"
	reasonValidation   = "validation"
	reasonFunds        = "insufficient_funds"
	reasonCancelled    = "cancelled"
	reasonProcessError = "processing_error"
)

// task carries the settlement facts one transfer goroutine needs to undo a
// debit when a later stage fails.
type task struct {
	id       string
	amount   decimal.Decimal
	debtorID string
	debited  bool
	credited bool
	mark     time.Time
}

func (tk *task) observe(stage domain.Status) {
	now := time.Now()
	stageLatency.WithLabelValues(string(stage)).Observe(now.Sub(tk.mark).Seconds())
	tk.mark = now
}

func (s *Service) run(ctx context.Context, id string) {
	l := zerolog.Ctx(ctx)
	tk := &task{id: id, mark: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Msg("transfer task panicked")
			s.fail(ctx, tk, fmt.Errorf("%w: panic: %v", errorspkg.ErrProcessing, r))
		}
	}()

	if err := s.process(ctx, tk); err != nil {
		s.fail(ctx, tk, err)
	}
}

// process advances the transfer stage by stage. It returns nil once the
// transfer reached a modeled terminal outcome and an error for any fault.
func (s *Service) process(ctx context.Context, tk *task) error {
	t, err := s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		return t.Advance(domain.StatusValidating, StepValidation,
			"Checking required fields: debtor, creditor, amount, currency", s.now())
	})
	if err != nil {
		return err
	}

	tk.amount = t.Amount

	if err := s.delayer.Wait(ctx); err != nil {
		return err
	}

	if err := validateFields(s.validate, t); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}

		return s.finish(ctx, tk, domain.StatusFailed, StepValidationFailed, err.Error(), reasonValidation, nil)
	}

	pacs008, err := pacscodec.RenderPacs008(t, s.now())
	if err != nil {
		return err
	}

	if err := pacscodec.Validate(domain.Pacs008, pacs008.XML); err != nil {
		return err
	}

	t, err = s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		t.Messages.Pacs008 = &pacs008
		t.AddStep(StepPacs008Issued, t.Status, fmt.Sprintf(
			"All required fields present: debtor, creditor, amount, currency. Message %s issued", pacs008.MsgID,
		), pacs008.CreatedAt)

		return nil
	})
	if err != nil {
		return err
	}

	tk.observe(domain.StatusValidating)

	if done, err := s.checkpoint(ctx, tk, false); done || err != nil {
		return err
	}

	if err := s.delayer.Wait(ctx); err != nil {
		return err
	}

	debtor, creditor, err := s.ledger.ResolveParties(ctx, t)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}

		return s.finish(ctx, tk, domain.StatusFailed, StepValidationFailed, err.Error(), reasonValidation, nil)
	}

	tk.debtorID = debtor.ID

	t, err = s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		t.DebtorAccountID = debtor.ID
		t.CreditorAccountID = creditor.ID

		return t.Advance(domain.StatusProcessing, StepRouting, routeDetails(*t, debtor, creditor), s.now())
	})
	if err != nil {
		return err
	}

	tk.observe(domain.StatusProcessing)

	if err := s.delayer.Wait(ctx); err != nil {
		return err
	}

	if done, err := s.checkpoint(ctx, tk, true); done || err != nil {
		return err
	}

	debit, err := s.ledger.Debit(ctx, debtor.ID, t.Amount, tk.id, "Wire transfer to "+t.CreditorName)
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return s.returnUnfunded(ctx, tk, t)
	}

	if err != nil {
		return err
	}

	tk.debited = true
	before := debit.BalanceAfter.Add(t.Amount)

	t, err = s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		return t.Advance(domain.StatusSettling, StepDebited, fmt.Sprintf(
			"Debited %s %s from %s. Balance before: %s, after: %s",
			t.Amount.StringFixed(2), t.Currency, debtor.ID, before.StringFixed(2), debit.BalanceAfter.StringFixed(2),
		), s.now())
	})
	if err != nil {
		return err
	}

	tk.observe(domain.StatusSettling)

	if err := s.delayer.Wait(ctx); err != nil {
		return err
	}

	pacs002, err := pacscodec.RenderPacs002(t, pacscodec.StatusAcceptedSettlementCompleted, "", s.now())
	if err != nil {
		return err
	}

	credit, err := s.ledger.Credit(ctx, creditor.ID, t.Amount, tk.id, "Wire transfer from "+t.DebtorName)
	if err != nil {
		return err
	}

	tk.credited = true

	details := fmt.Sprintf("Credited %s %s to %s. Balance after: %s. Status report %s issued",
		t.Amount.StringFixed(2), t.Currency, creditor.ID, credit.BalanceAfter.StringFixed(2), pacs002.MsgID)

	return s.finish(ctx, tk, domain.StatusCompleted, StepCredited, details, reasonSettled, func(t *domain.Transfer) {
		t.Messages.Pacs002 = &pacs002
	})
}

func routeDetails(t domain.Transfer, debtor, creditor domain.Account) string {
	rail := "Cross-border transfer routed via SWIFT to " + t.CreditorBIC
	if t.IsDomestic() {
		rail = fmt.Sprintf("Domestic transfer routed via Lynx (institution %s, transit %s)",
			t.InstitutionNumber, t.TransitNumber)
	}

	return fmt.Sprintf("%s. Debtor account %s (balance %s), creditor account %s (balance %s)",
		rail, debtor.ID, debtor.Balance.StringFixed(2), creditor.ID, creditor.Balance.StringFixed(2))
}

// checkpoint honours a pending cancellation. When claim is set and no
// cancellation is pending, the transfer claims settlement in the same update,
// after which cancellation requests are refused. It reports whether the
// transfer was cancelled.
func (s *Service) checkpoint(ctx context.Context, tk *task, claim bool) (bool, error) {
	var cancelled bool

	_, err := s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		if !t.CancelRequested && !claim && s.cancel.ShouldCancel(*t) {
			t.CancelRequested = true
			t.CancelReason = "Cancelled by operator"
		}

		cancelled = t.CancelRequested
		if !cancelled && claim {
			t.SettlementClaimed = true
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	if !cancelled {
		return false, nil
	}

	return true, s.cancelTransfer(ctx, tk)
}

func (s *Service) cancelTransfer(ctx context.Context, tk *task) error {
	t, err := s.repo.Get(ctx, tk.id)
	if err != nil {
		return err
	}

	pacs007, err := pacscodec.RenderPacs007(t, s.newID(), pacscodec.ReasonCustomerRequested, s.now())
	if err != nil {
		return err
	}

	details := fmt.Sprintf("%s. Reversal %s issued with reason %s", t.CancelReason, pacs007.ReferenceID, pacscodec.ReasonCustomerRequested)

	return s.finish(ctx, tk, domain.StatusFailed, StepCancelled, details, reasonCancelled, func(t *domain.Transfer) {
		t.Messages.Pacs007 = &pacs007
	})
}

func (s *Service) returnUnfunded(ctx context.Context, tk *task, t domain.Transfer) error {
	balance := "unknown"
	if acc, err := s.ledger.Get(ctx, tk.debtorID); err == nil {
		balance = acc.Balance.StringFixed(2)
	}

	pacs004, err := pacscodec.RenderPacs004(t, s.newID(), pacscodec.ReasonInsufficientFunds, s.now())
	if err != nil {
		return err
	}

	details := fmt.Sprintf("Debtor balance %s %s is below transfer amount %s. Return %s issued with reason %s",
		balance, t.Currency, t.Amount.StringFixed(2), pacs004.ReferenceID, pacscodec.ReasonInsufficientFunds)

	return s.finish(ctx, tk, domain.StatusFailed, StepInsufficientFunds, details, reasonFunds, func(t *domain.Transfer) {
		t.Messages.Pacs004 = &pacs004
	})
}

// finish moves the transfer into a terminal status together with its final
// message and archives the result.
func (s *Service) finish(ctx context.Context, tk *task, status domain.Status, step, details, reason string, attach func(t *domain.Transfer)) error {
	t, err := s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		if attach != nil {
			attach(t)
		}

		return t.Advance(status, step, details, s.now())
	})
	if err != nil {
		return err
	}

	tk.observe(status)
	transfersFinished.WithLabelValues(string(status), reason).Inc()

	zerolog.Ctx(ctx).Info().Str("status", string(status)).Str("step", step).Msg("transfer finished")

	s.archive(context.WithoutCancel(ctx), t)

	return nil
}

// fail routes a faulted transfer to FAILED. A debit that was not matched by
// the credit is reversed and reported with a return.
func (s *Service) fail(ctx context.Context, tk *task, cause error) {
	ctx = context.WithoutCancel(ctx)
	l := zerolog.Ctx(ctx)

	l.Error().Err(cause).Msg("transfer processing failed")

	details := errorspkg.ErrProcessing.Error()

	var pacs004 *domain.Message

	if tk.debited && !tk.credited {
		_, err := s.ledger.Credit(ctx, tk.debtorID, tk.amount, tk.id, "Reversal of failed wire transfer")
		if err != nil {
			l.Error().Err(err).Str("account_id", tk.debtorID).Msg("debit reversal failed")
		} else {
			details += ". Debit reversed"

			if t, err := s.repo.Get(ctx, tk.id); err == nil {
				msg, err := pacscodec.RenderPacs004(t, s.newID(), pacscodec.ReasonNotSpecified, s.now())
				if err == nil {
					pacs004 = &msg
					details += ", return " + msg.ReferenceID + " issued with reason " + pacscodec.ReasonNotSpecified
				}
			}
		}
	}

	t, err := s.repo.Update(ctx, tk.id, func(t *domain.Transfer) error {
		if pacs004 != nil && t.Messages.Pacs004 == nil {
			t.Messages.Pacs004 = pacs004
		}

		return t.Advance(domain.StatusFailed, StepProcessingError, details, s.now())
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTerminalTransfer) {
			l.Error().Err(err).Msg("cannot record transfer failure")
		}

		return
	}

	transfersFinished.WithLabelValues(string(domain.StatusFailed), reasonProcessError).Inc()

	s.archive(ctx, t)
}

func (s *Service) archive(ctx context.Context, t domain.Transfer) {
	if s.archiver == nil {
		return
	}

	if err := s.archiver.Save(ctx, t); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("transfer not archived")
	}
}

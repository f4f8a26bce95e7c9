package pacscodec

import (
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
)

// RenderPacs004 renders the payment return of the full original amount.
// returnID is the fresh identifier of the return.
func RenderPacs004(t domain.Transfer, returnID, reasonCode string, createdAt time.Time) (domain.Message, error) {
	orig, err := original(t)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		Type:          domain.Pacs004,
		TransferID:    t.ID,
		MsgID:         MessageID(domain.Pacs004, t.ID),
		CreatedAt:     createdAt,
		OriginalMsgID: orig.MsgID,
		EndToEndID:    orig.EndToEndID,
		TxID:          orig.TxID,
		ReferenceID:   "RTR" + Reference(returnID),
		Amount:        orig.Amount,
		Currency:      orig.Currency,
		ReasonCode:    reasonCode,
	}

	doc, root := newDocument(domain.Pacs004)
	body := add(root, "PmtRtr", "")

	hdr := addGroupHeader(body, msg.MsgID, createdAt)
	add(hdr, "NbOfTxs", "1")
	sttlm := add(hdr, "SttlmInf", "")
	add(sttlm, "SttlmMtd", "CLRG")

	tx := add(body, "TxInf", "")
	add(tx, "RtrId", msg.ReferenceID)
	addOriginalGroup(tx, "OrgnlGrpInf", orig)
	addOriginalRefs(tx, orig)
	addAmount(tx, "OrgnlIntrBkSttlmAmt", orig.Amount, orig.Currency)
	addAmount(tx, "RtrdIntrBkSttlmAmt", orig.Amount, orig.Currency)
	add(tx, "IntrBkSttlmDt", createdAt.UTC().Format("2006-01-02"))
	add(tx, "ChrgBr", ChargeBearer)
	addReason(tx, "RtrRsnInf", reasonCode)

	xml, err := write(doc)
	if err != nil {
		return domain.Message{}, err
	}

	msg.XML = xml

	return msg, nil
}

package pacscodec

import (
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
)

// RenderPacs007 renders the FI to FI payment reversal issued when a transfer
// is cancelled before settlement. reversalID is the fresh identifier of the
// cancellation.
func RenderPacs007(t domain.Transfer, reversalID, reasonCode string, createdAt time.Time) (domain.Message, error) {
	orig, err := original(t)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		Type:          domain.Pacs007,
		TransferID:    t.ID,
		MsgID:         MessageID(domain.Pacs007, t.ID),
		CreatedAt:     createdAt,
		OriginalMsgID: orig.MsgID,
		EndToEndID:    orig.EndToEndID,
		TxID:          orig.TxID,
		ReferenceID:   "CXL" + Reference(reversalID),
		Amount:        orig.Amount,
		Currency:      orig.Currency,
		ReasonCode:    reasonCode,
	}

	doc, root := newDocument(domain.Pacs007)
	body := add(root, "FIToFIPmtRvsl", "")

	hdr := addGroupHeader(body, msg.MsgID, createdAt)
	add(hdr, "NbOfTxs", "1")

	addOriginalGroup(body, "OrgnlGrpInf", orig)

	tx := add(body, "TxInf", "")
	add(tx, "RvslId", msg.ReferenceID)
	addOriginalRefs(tx, orig)
	addAmount(tx, "RvsdIntrBkSttlmAmt", orig.Amount, orig.Currency)
	addReason(tx, "RvslRsnInf", reasonCode)

	xml, err := write(doc)
	if err != nil {
		return domain.Message{}, err
	}

	msg.XML = xml

	return msg, nil
}

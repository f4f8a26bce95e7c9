package pacscodec

import (
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
)

// RenderPacs002 renders the FI to FI payment status report answering the
// transfer's pacs.008. reasonCode may be empty.
func RenderPacs002(t domain.Transfer, status TxStatus, reasonCode string, createdAt time.Time) (domain.Message, error) {
	orig, err := original(t)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		Type:          domain.Pacs002,
		TransferID:    t.ID,
		MsgID:         MessageID(domain.Pacs002, t.ID),
		CreatedAt:     createdAt,
		OriginalMsgID: orig.MsgID,
		EndToEndID:    orig.EndToEndID,
		TxID:          orig.TxID,
		Amount:        orig.Amount,
		Currency:      orig.Currency,
		StatusCode:    string(status),
		ReasonCode:    reasonCode,
	}

	doc, root := newDocument(domain.Pacs002)
	body := add(root, "FIToFIPmtStsRpt", "")

	addGroupHeader(body, msg.MsgID, createdAt)
	addOriginalGroup(body, "OrgnlGrpInfAndSts", orig)

	tx := add(body, "TxInfAndSts", "")
	add(tx, "StsId", "STS"+Reference(t.ID))
	addOriginalRefs(tx, orig)
	add(tx, "TxSts", string(status))

	if reasonCode != "" {
		addReason(tx, "StsRsnInf", reasonCode)
	}

	add(tx, "AccptncDtTm", createdAt.UTC().Format(dateTimeLayout))

	ref := add(tx, "OrgnlTxRef", "")
	addAmount(ref, "IntrBkSttlmAmt", orig.Amount, orig.Currency)

	xml, err := write(doc)
	if err != nil {
		return domain.Message{}, err
	}

	msg.XML = xml

	return msg, nil
}

package pacscodec

import (
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
)

// RenderPacs008 renders the FI to FI customer credit transfer of t.
func RenderPacs008(t domain.Transfer, createdAt time.Time) (domain.Message, error) {
	msg := domain.Message{
		Type:       domain.Pacs008,
		TransferID: t.ID,
		MsgID:      MessageID(domain.Pacs008, t.ID),
		CreatedAt:  createdAt,
		EndToEndID: EndToEndID(t.ID),
		TxID:       TransactionID(t.ID),
		Amount:     t.Amount,
		Currency:   t.Currency,
	}

	doc, root := newDocument(domain.Pacs008)
	body := add(root, "FIToFICstmrCdtTrf", "")

	hdr := addGroupHeader(body, msg.MsgID, createdAt)
	add(hdr, "NbOfTxs", "1")
	add(hdr, "CtrlSum", amountText(t.Amount))
	addAmount(hdr, "TtlIntrBkSttlmAmt", t.Amount, t.Currency)
	add(hdr, "IntrBkSttlmDt", createdAt.UTC().Format("2006-01-02"))

	sttlm := add(hdr, "SttlmInf", "")
	add(sttlm, "SttlmMtd", "CLRG")
	clrSys := add(sttlm, "ClrSys", "")
	add(clrSys, "Prtry", string(t.Route()))

	initg := add(hdr, "InitgPty", "")
	add(initg, "Nm", t.DebtorName)

	tx := add(body, "CdtTrfTxInf", "")

	pmtID := add(tx, "PmtId", "")
	add(pmtID, "InstrId", InstructionID(t.ID))
	add(pmtID, "EndToEndId", msg.EndToEndID)
	add(pmtID, "TxId", msg.TxID)
	add(pmtID, "UETR", t.ID)

	addAmount(tx, "IntrBkSttlmAmt", t.Amount, t.Currency)
	add(tx, "ChrgBr", ChargeBearer)

	dbtr := add(tx, "Dbtr", "")
	add(dbtr, "Nm", t.DebtorName)

	dbtrAcct := add(tx, "DbtrAcct", "")
	othr := add(add(dbtrAcct, "Id", ""), "Othr", "")
	add(othr, "Id", t.InstitutionNumber+t.TransitNumber+t.AccountNumber)

	dbtrAgt := add(add(tx, "DbtrAgt", ""), "FinInstnId", "")
	add(dbtrAgt, "BICFI", LynxBIC)
	mmb := add(dbtrAgt, "ClrSysMmbId", "")
	add(add(mmb, "ClrSysId", ""), "Cd", ClearingSystemCode)
	add(mmb, "MmbId", ClearingMemberID(t.InstitutionNumber, t.TransitNumber))

	cdtrAgt := add(add(tx, "CdtrAgt", ""), "FinInstnId", "")
	add(cdtrAgt, "BICFI", t.CreditorBIC)

	cdtr := add(tx, "Cdtr", "")
	add(cdtr, "Nm", t.CreditorName)

	cdtrAcct := add(tx, "CdtrAcct", "")
	add(add(cdtrAcct, "Id", ""), "IBAN", t.CreditorIBAN)

	add(add(tx, "Purp", ""), "Cd", PurposeCode)

	if t.Purpose != "" {
		ustrd := t.Purpose
		if r := []rune(ustrd); len(r) > maxRemittanceLen {
			ustrd = string(r[:maxRemittanceLen])
		}

		add(add(tx, "RmtInf", ""), "Ustrd", ustrd)
	}

	xml, err := write(doc)
	if err != nil {
		return domain.Message{}, err
	}

	msg.XML = xml

	return msg, nil
}

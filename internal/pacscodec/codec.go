// Package pacscodec renders ISO 20022 payments clearing and settlement
// documents (pacs.008, pacs.002, pacs.004, pacs.007) from transfer facts.
//
// Rendering is a pure function of its inputs: the creation timestamp and any
// fresh identifiers are supplied by the caller, so rendering the same facts
// twice yields byte-identical documents.
package pacscodec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingOriginal indicates that a follow-up message was requested for
	// a transfer without an issued pacs.008.
	ErrMissingOriginal = errors.New("original pacs.008 not issued")
	// ErrMalformed indicates a document that is not a well-formed message of the expected type.
	ErrMalformed = errors.New("malformed ISO 20022 document")
)

// TxStatus is an ISO 20022 ExternalPaymentTransactionStatus1Code.
type TxStatus string

// Transaction status codes.
const (
	StatusAcceptedSettlementCompleted TxStatus = "ACSC"
	StatusAcceptedSettlementInProcess TxStatus = "ACSP"
	StatusAcceptedCustomerProfile     TxStatus = "ACCP"
	StatusPending                     TxStatus = "PDNG"
	StatusRejected                    TxStatus = "RJCT"
)

// Reason codes used by returns, reversals and status reports.
const (
	ReasonInsufficientFunds = "AM04"
	ReasonCustomerRequested = "CUST"
	ReasonNotSpecified      = "MS03"
)

// Agent and clearing constants.
const (
	LynxBIC            = "LYNXCA22XXX"
	ClearingSystemCode = "CACPA"
	ChargeBearer       = "DEBT"
	PurposeCode        = "CASH"
	maxRemittanceLen   = 140
)

const dateTimeLayout = "2006-01-02T15:04:05Z"

func namespace(t domain.MessageType) string {
	return "urn:iso:std:iso:20022:tech:xsd:" + string(t)
}

// Reference returns the 16 character upper case reference derived from an id.
func Reference(id string) string {
	ref := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(ref) > 16 {
		ref = ref[:16]
	}

	return ref
}

// MessageID returns the group header message id of the given message type for a transfer.
func MessageID(t domain.MessageType, transferID string) string {
	code := strings.TrimPrefix(string(t), "pacs.")[:3]
	return "LYNX" + code + Reference(transferID)
}

// InstructionID returns the instruction id of a transfer.
func InstructionID(transferID string) string {
	return "LYNX" + Reference(transferID)
}

// EndToEndID returns the end-to-end id of a transfer.
func EndToEndID(transferID string) string {
	return "E2E" + Reference(transferID)
}

// TransactionID returns the interbank transaction id of a transfer.
func TransactionID(transferID string) string {
	return "TX" + Reference(transferID)
}

// ClearingMemberID returns the Canadian routing number (0 + institution + transit).
func ClearingMemberID(institution, transit string) string {
	return "0" + institution + transit
}

func amountText(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newDocument(t domain.MessageType) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", namespace(t))
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	return doc, root
}

func add(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	if text != "" {
		el.SetText(text)
	}

	return el
}

func addAmount(parent *etree.Element, tag string, amount decimal.Decimal, currency string) *etree.Element {
	el := add(parent, tag, amountText(amount))
	el.CreateAttr("Ccy", currency)

	return el
}

func addGroupHeader(parent *etree.Element, msgID string, createdAt time.Time) *etree.Element {
	hdr := add(parent, "GrpHdr", "")
	add(hdr, "MsgId", msgID)
	add(hdr, "CreDtTm", createdAt.UTC().Format(dateTimeLayout))

	return hdr
}

func addOriginalGroup(parent *etree.Element, tag string, original *domain.Message) {
	grp := add(parent, tag, "")
	add(grp, "OrgnlMsgId", original.MsgID)
	add(grp, "OrgnlMsgNmId", string(domain.Pacs008))
	add(grp, "OrgnlCreDtTm", original.CreatedAt.UTC().Format(dateTimeLayout))
}

func addOriginalRefs(parent *etree.Element, original *domain.Message) {
	add(parent, "OrgnlInstrId", InstructionID(original.TransferID))
	add(parent, "OrgnlEndToEndId", original.EndToEndID)
	add(parent, "OrgnlTxId", original.TxID)
	add(parent, "OrgnlUETR", original.TransferID)
}

func addReason(parent *etree.Element, tag, code string) {
	inf := add(parent, tag, "")
	rsn := add(inf, "Rsn", "")
	add(rsn, "Cd", code)
}

func write(doc *etree.Document) (string, error) {
	doc.Indent(2)

	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	return s, nil
}

func original(t domain.Transfer) (*domain.Message, error) {
	if t.Messages.Pacs008 == nil {
		return nil, ErrMissingOriginal
	}

	return t.Messages.Pacs008, nil
}

var requiredPaths = map[domain.MessageType][]string{
	domain.Pacs008: {
		"FIToFICstmrCdtTrf/GrpHdr/MsgId",
		"FIToFICstmrCdtTrf/GrpHdr/CreDtTm",
		"FIToFICstmrCdtTrf/GrpHdr/NbOfTxs",
		"FIToFICstmrCdtTrf/GrpHdr/SttlmInf/SttlmMtd",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/PmtId/EndToEndId",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/PmtId/UETR",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/IntrBkSttlmAmt",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/Dbtr/Nm",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/DbtrAgt/FinInstnId",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/CdtrAgt/FinInstnId/BICFI",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/Cdtr/Nm",
		"FIToFICstmrCdtTrf/CdtTrfTxInf/CdtrAcct/Id/IBAN",
	},
	domain.Pacs002: {
		"FIToFIPmtStsRpt/GrpHdr/MsgId",
		"FIToFIPmtStsRpt/GrpHdr/CreDtTm",
		"FIToFIPmtStsRpt/OrgnlGrpInfAndSts/OrgnlMsgId",
		"FIToFIPmtStsRpt/TxInfAndSts/OrgnlEndToEndId",
		"FIToFIPmtStsRpt/TxInfAndSts/TxSts",
	},
	domain.Pacs004: {
		"PmtRtr/GrpHdr/MsgId",
		"PmtRtr/GrpHdr/CreDtTm",
		"PmtRtr/TxInf/RtrId",
		"PmtRtr/TxInf/OrgnlGrpInf/OrgnlMsgId",
		"PmtRtr/TxInf/OrgnlEndToEndId",
		"PmtRtr/TxInf/RtrdIntrBkSttlmAmt",
		"PmtRtr/TxInf/RtrRsnInf/Rsn/Cd",
	},
	domain.Pacs007: {
		"FIToFIPmtRvsl/GrpHdr/MsgId",
		"FIToFIPmtRvsl/GrpHdr/CreDtTm",
		"FIToFIPmtRvsl/OrgnlGrpInf/OrgnlMsgId",
		"FIToFIPmtRvsl/TxInf/RvslId",
		"FIToFIPmtRvsl/TxInf/OrgnlEndToEndId",
		"FIToFIPmtRvsl/TxInf/RvslRsnInf/Rsn/Cd",
	},
}

// Validate parses document and checks that it is a well-formed message of
// type typ carrying every required group.
func Validate(typ domain.MessageType, document string) error {
	paths, ok := requiredPaths[typ]
	if !ok {
		return fmt.Errorf("%w: unknown message type %q", ErrMalformed, typ)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(document); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Document" {
		return fmt.Errorf("%w: missing Document root", ErrMalformed)
	}

	if ns := root.SelectAttrValue("xmlns", ""); ns != namespace(typ) {
		return fmt.Errorf("%w: namespace %q, want %q", ErrMalformed, ns, namespace(typ))
	}

	for _, p := range paths {
		el := root.FindElement(p)
		if el == nil || (strings.TrimSpace(el.Text()) == "" && len(el.ChildElements()) == 0) {
			return fmt.Errorf("%w: %s is missing", ErrMalformed, p)
		}
	}

	return nil
}

// Package wire defines the binary framing for orders and execution
// reports crossing a process boundary. It is a pure adapter: nothing in
// internal/book, internal/matching or internal/router imports it, and
// it imports nothing from them but internal/domain's plain value types.
//
// Grounded on the teacher's internal/net/messages.go big-endian framing
// (BaseMessage header + fixed-width fields + trailing variable-length
// string), generalized from float64 prices to fixed-point Price/Qty and
// from a two-message protocol to the full order-kind vocabulary.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/saiputravu/matchbook/internal/domain"
)

var (
	ErrMessageTooShort = errors.New("wire: message too short for its declared header")
	ErrInvalidKind     = errors.New("wire: unknown order kind byte")
	ErrInvalidMessage  = errors.New("wire: unrecognized message type byte")
)

// MessageType tags the first byte of every frame.
type MessageType uint8

const (
	MsgNewOrder MessageType = iota
	MsgCancelOrder
	MsgExecutionReport
	MsgRejectReport
)

// kindByte/kindFromByte map domain.Kind to/from the single byte carried
// on the wire; kept as an explicit table rather than a cast so the wire
// format doesn't silently shift if domain.Kind's iota order ever changes.
var kindByte = map[domain.Kind]byte{
	domain.Limit:   0,
	domain.Market:  1,
	domain.IOC:     2,
	domain.FOK:     3,
	domain.Iceberg: 4,
	domain.Stop:    5,
}

var byteKind = func() map[byte]domain.Kind {
	m := make(map[byte]domain.Kind, len(kindByte))
	for k, b := range kindByte {
		m[b] = k
	}
	return m
}()

// NewOrderHeaderLen is the fixed portion of an encoded new-order frame,
// before the variable-length symbol string:
// type(1) + id(8) + side(1) + kind(1) + price(8) + qty(8) + display(8) +
// trigger(8) + underlying_kind(1) + symbol_len(1).
const NewOrderHeaderLen = 1 + 8 + 1 + 1 + 8 + 8 + 8 + 8 + 1 + 1

// EncodeNewOrder serializes o as a MsgNewOrder frame.
func EncodeNewOrder(o domain.Order) ([]byte, error) {
	kb, ok := kindByte[o.Kind.Kind]
	if !ok {
		return nil, ErrInvalidKind
	}
	symbol := []byte(o.Symbol)
	buf := make([]byte, NewOrderHeaderLen+len(symbol))

	buf[0] = byte(MsgNewOrder)
	binary.BigEndian.PutUint64(buf[1:9], uint64(o.ID))
	buf[9] = byte(o.Side)
	buf[10] = kb
	binary.BigEndian.PutUint64(buf[11:19], uint64(o.Price))
	binary.BigEndian.PutUint64(buf[19:27], uint64(o.Quantity))
	binary.BigEndian.PutUint64(buf[27:35], uint64(o.Kind.Display))
	binary.BigEndian.PutUint64(buf[35:43], uint64(o.Kind.Trigger))
	buf[43] = kindByte[o.Kind.Underlying]
	buf[44] = byte(len(symbol))
	copy(buf[NewOrderHeaderLen:], symbol)
	return buf, nil
}

// DecodeNewOrder parses a MsgNewOrder frame produced by EncodeNewOrder.
func DecodeNewOrder(msg []byte) (domain.Order, error) {
	if len(msg) < NewOrderHeaderLen {
		return domain.Order{}, ErrMessageTooShort
	}
	if MessageType(msg[0]) != MsgNewOrder {
		return domain.Order{}, ErrInvalidMessage
	}
	kind, ok := byteKind[msg[10]]
	if !ok {
		return domain.Order{}, ErrInvalidKind
	}
	underlying, ok := byteKind[msg[43]]
	if !ok {
		return domain.Order{}, ErrInvalidKind
	}
	symbolLen := int(msg[44])
	if len(msg) < NewOrderHeaderLen+symbolLen {
		return domain.Order{}, ErrMessageTooShort
	}

	return domain.Order{
		ID:       domain.OrderID(binary.BigEndian.Uint64(msg[1:9])),
		Side:     domain.Side(msg[9]),
		Price:    domain.Price(binary.BigEndian.Uint64(msg[11:19])),
		Quantity: domain.Qty(binary.BigEndian.Uint64(msg[19:27])),
		Kind: domain.OrderKind{
			Kind:       kind,
			Display:    domain.Qty(binary.BigEndian.Uint64(msg[27:35])),
			Trigger:    domain.Price(binary.BigEndian.Uint64(msg[35:43])),
			Underlying: underlying,
		},
		Symbol: domain.Symbol(msg[NewOrderHeaderLen : NewOrderHeaderLen+symbolLen]),
	}, nil
}

// CancelOrderLen is the fixed length of a cancel frame: type(1) + id(8).
const CancelOrderLen = 1 + 8

// EncodeCancelOrder serializes a cancel request for id.
func EncodeCancelOrder(id domain.OrderID) []byte {
	buf := make([]byte, CancelOrderLen)
	buf[0] = byte(MsgCancelOrder)
	binary.BigEndian.PutUint64(buf[1:9], uint64(id))
	return buf
}

// DecodeCancelOrder parses a cancel frame.
func DecodeCancelOrder(msg []byte) (domain.OrderID, error) {
	if len(msg) < CancelOrderLen {
		return 0, ErrMessageTooShort
	}
	if MessageType(msg[0]) != MsgCancelOrder {
		return 0, ErrInvalidMessage
	}
	return domain.OrderID(binary.BigEndian.Uint64(msg[1:9])), nil
}

// ExecutionReportLen is the fixed length of one trade report frame:
// type(1) + seq(8) + maker_id(8) + taker_id(8) + price(8) + qty(8) + ts(8).
const ExecutionReportLen = 1 + 8 + 8 + 8 + 8 + 8 + 8

// EncodeExecutionReport serializes t as a MsgExecutionReport frame.
// Symbol is not carried on the wire here; it is implied by the
// connection/topic the frame travels on, the way the teacher's
// transport scoped username rather than repeating it per message.
func EncodeExecutionReport(t domain.TradeReport) []byte {
	buf := make([]byte, ExecutionReportLen)
	buf[0] = byte(MsgExecutionReport)
	binary.BigEndian.PutUint64(buf[1:9], uint64(t.Seq))
	binary.BigEndian.PutUint64(buf[9:17], uint64(t.MakerID))
	binary.BigEndian.PutUint64(buf[17:25], uint64(t.TakerID))
	binary.BigEndian.PutUint64(buf[25:33], uint64(t.Price))
	binary.BigEndian.PutUint64(buf[33:41], uint64(t.Quantity))
	binary.BigEndian.PutUint64(buf[41:49], uint64(t.TS))
	return buf
}

// DecodeExecutionReport parses a MsgExecutionReport frame. Symbol must
// be filled in by the caller from channel/topic context.
func DecodeExecutionReport(msg []byte) (domain.TradeReport, error) {
	if len(msg) < ExecutionReportLen {
		return domain.TradeReport{}, ErrMessageTooShort
	}
	if MessageType(msg[0]) != MsgExecutionReport {
		return domain.TradeReport{}, ErrInvalidMessage
	}
	return domain.TradeReport{
		Seq:      domain.Seq(binary.BigEndian.Uint64(msg[1:9])),
		MakerID:  domain.OrderID(binary.BigEndian.Uint64(msg[9:17])),
		TakerID:  domain.OrderID(binary.BigEndian.Uint64(msg[17:25])),
		Price:    domain.Price(binary.BigEndian.Uint64(msg[25:33])),
		Quantity: domain.Qty(binary.BigEndian.Uint64(msg[33:41])),
		TS:       int64(binary.BigEndian.Uint64(msg[41:49])),
	}, nil
}

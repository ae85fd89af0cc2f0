package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tomasstrnad1997/minefield/mines"
)

type MessageType byte

const (
	MoveCommand MessageType = 0x01
	Board       MessageType = 0x03
)

const (
	HeaderLength = 6
	// size, mines, revealed, flagged + status byte
	BoardHeaderLength = 4*4 + 1
	CellByteLength    = 2
	MoveByteLength    = 9
)

const (
	MineFlag     byte = 0b0001
	RevealedFlag byte = 0b0010
	FlaggedFlag  byte = 0b0100
)

// Status byte of an encoded board
const (
	OverStatus byte = 0b0001
	WonStatus  byte = 0b0010
)

var (
	ErrInvalidPayloadSize = errors.New("invalid payload size")
)

func checkAndDecodeLength(data []byte, message MessageType) (int, error) {
	if len(data) < HeaderLength {
		return 0, fmt.Errorf("Data too short to decode")
	}
	if MessageType(data[0]) != message {
		return 0, fmt.Errorf("Invalid message type for command E:%d R:%d", message, data[0])
	}
	payloadLength := int(binary.BigEndian.Uint32(data[2:6]))
	if payloadLength != len(data)-HeaderLength {
		return payloadLength, ErrInvalidPayloadSize
	}
	return payloadLength, nil
}

func intToBytes(i int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return buf
}

func bytesToInt(bytes []byte) int {
	return int(int32(binary.BigEndian.Uint32(bytes)))
}

func writePayloadLength(buf *bytes.Buffer, length int) error {
	err := binary.Write(buf, binary.BigEndian, uint32(length))
	if err != nil {
		return fmt.Errorf("Failed to write length (%d)", length)
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, message MessageType, length int) error {
	buf.WriteByte(byte(message))
	// Reserved byte for future use
	buf.WriteByte(byte(0x00))
	return writePayloadLength(buf, length)
}

func EncodeMove(move mines.Move) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MoveCommand, MoveByteLength); err != nil {
		return nil, err
	}
	payload := make([]byte, MoveByteLength)
	payload[0] = byte(move.Type)
	copy(payload[1:5], intToBytes(move.Row))
	copy(payload[5:9], intToBytes(move.Col))
	buf.Write(payload)
	return buf.Bytes(), nil
}

func DecodeMove(data []byte) (*mines.Move, error) {
	length, err := checkAndDecodeLength(data, MoveCommand)
	if err != nil {
		return nil, err
	}
	if length != MoveByteLength {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	move := &mines.Move{
		Type: mines.MoveType(payload[0]),
		Row:  bytesToInt(payload[1:5]),
		Col:  bytesToInt(payload[5:9]),
	}
	return move, nil
}

func encodeCellFlags(cell mines.CellState) byte {
	var flags byte = 0x00
	if cell.Mine {
		flags |= MineFlag
	}
	if cell.Revealed {
		flags |= RevealedFlag
	}
	if cell.Flagged {
		flags |= FlaggedFlag
	}
	return flags
}

func decodeCellFlags(flags byte, cell *mines.CellState) error {
	if flags&^(MineFlag|RevealedFlag|FlaggedFlag) != 0 {
		return fmt.Errorf("unknown cell flags %08b", flags)
	}
	cell.Mine = (flags & MineFlag) != 0
	cell.Revealed = (flags & RevealedFlag) != 0
	cell.Flagged = (flags & FlaggedFlag) != 0
	return nil
}

// EncodeBoard writes the full board state. Cells follow the board header in
// row-major order, two bytes each: flags and adjacent mine count.
func EncodeBoard(board *mines.Board) ([]byte, error) {
	snapshot := board.Snapshot()
	payloadLength := BoardHeaderLength + snapshot.Size*snapshot.Size*CellByteLength
	var buf bytes.Buffer
	if err := writeHeader(&buf, Board, payloadLength); err != nil {
		return nil, err
	}
	buf.Write(intToBytes(snapshot.Size))
	buf.Write(intToBytes(snapshot.Mines))
	buf.Write(intToBytes(snapshot.Revealed))
	buf.Write(intToBytes(snapshot.Flagged))
	var status byte
	if snapshot.Over {
		status |= OverStatus
	}
	if snapshot.Won {
		status |= WonStatus
	}
	buf.WriteByte(status)
	for _, row := range snapshot.Cells {
		for _, cell := range row {
			buf.WriteByte(encodeCellFlags(cell))
			buf.WriteByte(byte(cell.Adjacent))
		}
	}
	if buf.Len() != HeaderLength+payloadLength {
		return nil, fmt.Errorf("Incorrect payload length while encoding board")
	}
	return buf.Bytes(), nil
}

// DecodeBoard rebuilds a board and rejects payloads that break any board
// invariant.
func DecodeBoard(data []byte) (*mines.Board, error) {
	length, err := checkAndDecodeLength(data, Board)
	if err != nil {
		return nil, err
	}
	if length < BoardHeaderLength {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	snapshot := mines.Snapshot{
		Size:     bytesToInt(payload[0:4]),
		Mines:    bytesToInt(payload[4:8]),
		Revealed: bytesToInt(payload[8:12]),
		Flagged:  bytesToInt(payload[12:16]),
		Over:     payload[16]&OverStatus != 0,
		Won:      payload[16]&WonStatus != 0,
	}
	if snapshot.Size <= 0 {
		return nil, fmt.Errorf("invalid board size %d", snapshot.Size)
	}
	cells := payload[BoardHeaderLength:]
	if len(cells) != snapshot.Size*snapshot.Size*CellByteLength {
		return nil, ErrInvalidPayloadSize
	}
	snapshot.Cells = make([][]mines.CellState, snapshot.Size)
	for row := range snapshot.Cells {
		snapshot.Cells[row] = make([]mines.CellState, snapshot.Size)
		for col := range snapshot.Cells[row] {
			offset := (row*snapshot.Size + col) * CellByteLength
			cell := &snapshot.Cells[row][col]
			if err := decodeCellFlags(cells[offset], cell); err != nil {
				return nil, fmt.Errorf("cell (%d, %d): %w", row, col, err)
			}
			cell.Adjacent = int(cells[offset+1])
		}
	}
	return mines.RestoreBoard(snapshot)
}

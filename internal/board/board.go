// Package board encodes and decodes the 8x8 checkers board.
//
// A board is encoded as eight rows of eight characters joined by '/':
// 'r' red man, 'b' black man, 'R' red king, 'B' black king, '.' empty
// dark square and ' ' empty light square. Only dark squares, where
// (row+col) is odd, are playable.
package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Size         = 8
	RowDelimiter = '/'
)

var ErrMalformedBoard = errors.New("malformed board")

type Side uint8

const (
	Red Side = iota
	Black
)

func (s Side) Opposite() Side {
	if s == Red {
		return Black
	}
	return Red
}

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "red"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "red":
		*s = Red
	case "black":
		*s = Black
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

type Piece uint8

const (
	Empty Piece = iota
	RedMan
	BlackMan
	RedKing
	BlackKing
)

func (p Piece) IsEmpty() bool { return p == Empty }
func (p Piece) IsKing() bool  { return p == RedKing || p == BlackKing }
func (p Piece) IsRed() bool   { return p == RedMan || p == RedKing }
func (p Piece) IsBlack() bool { return p == BlackMan || p == BlackKing }

// BelongsTo reports whether p is a piece of side s. Empty belongs to no side.
func (p Piece) BelongsTo(s Side) bool {
	if s == Red {
		return p.IsRed()
	}
	return p.IsBlack()
}

func (p Piece) Crowned() Piece {
	switch p {
	case RedMan:
		return RedKing
	case BlackMan:
		return BlackKing
	}
	return p
}

func (p Piece) Char() byte {
	switch p {
	case RedMan:
		return 'r'
	case BlackMan:
		return 'b'
	case RedKing:
		return 'R'
	case BlackKing:
		return 'B'
	}
	return '.'
}

func (p Piece) String() string {
	switch p {
	case RedMan:
		return "r"
	case BlackMan:
		return "b"
	case RedKing:
		return "R"
	case BlackKing:
		return "B"
	}
	return ""
}

func pieceFromChar(c byte) (Piece, bool) {
	switch c {
	case 'r':
		return RedMan, true
	case 'b':
		return BlackMan, true
	case 'R':
		return RedKing, true
	case 'B':
		return BlackKing, true
	case '.', ' ':
		return Empty, true
	}
	return Empty, false
}

// ParsePiece accepts the single-character piece names used in search patterns.
func ParsePiece(s string) (Piece, bool) {
	if len(s) != 1 {
		return Empty, false
	}
	return pieceFromChar(s[0])
}

// Board is an owned value; Set returns a modified copy.
type Board [Size][Size]Piece

func IsPlayableSquare(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size && (row+col)%2 == 1
}

func inRange(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

func (b Board) Get(row, col int) Piece {
	if !inRange(row, col) {
		return Empty
	}
	return b[row][col]
}

func (b Board) Set(row, col int, p Piece) Board {
	if !inRange(row, col) {
		return b
	}
	b[row][col] = p
	return b
}

func (b Board) Count() (red, black int) {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			switch {
			case b[row][col].IsRed():
				red++
			case b[row][col].IsBlack():
				black++
			}
		}
	}
	return red, black
}

func Starting() Board {
	var b Board
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if !IsPlayableSquare(row, col) {
				continue
			}
			switch {
			case row < 3:
				b[row][col] = RedMan
			case row > 4:
				b[row][col] = BlackMan
			}
		}
	}
	return b
}

func (b Board) Encode() string {
	var sb strings.Builder
	sb.Grow(Size*Size + Size - 1)
	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteByte(RowDelimiter)
		}
		for col := 0; col < Size; col++ {
			p := b[row][col]
			switch {
			case p != Empty:
				sb.WriteByte(p.Char())
			case (row+col)%2 == 1:
				sb.WriteByte('.')
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

func (b Board) String() string {
	return b.Encode()
}

func Decode(s string) (Board, error) {
	var b Board
	rows := strings.Split(s, string(RowDelimiter))
	if len(rows) != Size {
		return b, fmt.Errorf("%w: want %d rows, got %d", ErrMalformedBoard, Size, len(rows))
	}
	for row, line := range rows {
		if len(line) != Size {
			return b, fmt.Errorf("%w: row %d has %d squares", ErrMalformedBoard, row, len(line))
		}
		for col := 0; col < Size; col++ {
			p, ok := pieceFromChar(line[col])
			if !ok {
				return b, fmt.Errorf("%w: unexpected %q at %d,%d", ErrMalformedBoard, line[col], row, col)
			}
			b[row][col] = p
		}
	}
	return b, nil
}

func (b Board) MarshalText() ([]byte, error) {
	return []byte(b.Encode()), nil
}

func (b *Board) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrNilBoard = errors.New("preview: board is nil")

// Highlight marks the last move played on the previewed position.
type Highlight struct {
	From nchess.Square
	To   nchess.Square
}

type Options struct {
	Highlight *Highlight
	// Header is drawn above the board, Footer below the file letters.
	Header string
	Footer string
	// Marked squares get a warning tint, e.g. the destination of a repaired move.
	Marked []nchess.Square
}

// Renderer draws a board position as PNG.
type Renderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

type svgRenderer struct {
	squareSize int
}

func NewRenderer() Renderer {
	return &svgRenderer{squareSize: 48}
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	moveFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	markFill       = color.NRGBA{R: 230, G: 80, B: 60, A: 120}
	backgroundFill = color.RGBA{28, 31, 46, 255}
	textColor      = color.RGBA{236, 239, 255, 255}
)

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func (r *svgRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, ErrNilBoard
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	const (
		margin      = 24
		headerSpace = 28
		footerSpace = 40
	)
	sq := r.squareSize
	boardSize := sq * 8
	origin := image.Point{X: margin, Y: headerSpace}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+margin*2, boardSize+headerSpace+footerSpace))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundFill), image.Point{}, draw.Src)

	for row, rank := range ranks {
		for col, file := range files {
			x, y := origin.X+col*sq, origin.Y+row*sq
			draw.Draw(img, image.Rect(x, y, x+sq, y+sq), image.NewUniform(squareColor(nchess.NewSquare(file, rank))), image.Point{}, draw.Src)
		}
	}
	if h := opts.Highlight; h != nil {
		overlay(img, h.From, sq, origin, moveFill)
		overlay(img, h.To, sq, origin, moveFill)
	}
	for _, m := range opts.Marked {
		overlay(img, m, sq, origin, markFill)
	}

	squares := board.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			piece := squares[nchess.NewSquare(file, rank)]
			if piece == nchess.NoPiece {
				continue
			}
			pimg, err := pieceImage(piece, sq)
			if err != nil {
				return nil, err
			}
			x, y := origin.X+col*sq, origin.Y+row*sq
			draw.Draw(img, image.Rect(x, y, x+sq, y+sq), pimg, image.Point{}, draw.Over)
		}
	}

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(textColor)}
	for row, rank := range ranks {
		drawText(drawer, rank.String(), margin/2, origin.Y+row*sq+sq/2+4)
	}
	for col, file := range files {
		drawText(drawer, file.String(), origin.X+col*sq+sq/2, origin.Y+boardSize+14)
	}
	if s := strings.TrimSpace(opts.Header); s != "" {
		drawText(drawer, s, img.Bounds().Dx()/2, headerSpace-10)
	}
	if s := strings.TrimSpace(opts.Footer); s != "" {
		drawText(drawer, s, img.Bounds().Dx()/2, origin.Y+boardSize+32)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func squareRect(sq nchess.Square, size int, origin image.Point) image.Rectangle {
	x := origin.X + int(sq.File())*size
	y := origin.Y + (7-int(sq.Rank()))*size
	return image.Rect(x, y, x+size, y+size)
}

func overlay(img *image.RGBA, sq nchess.Square, size int, origin image.Point, clr color.Color) {
	draw.Draw(img, squareRect(sq, size, origin), image.NewUniform(clr), image.Point{}, draw.Over)
}

// drawText centers text horizontally on centerX.
func drawText(d *font.Drawer, text string, centerX, baseline int) {
	w := d.MeasureString(text).Round()
	d.Dot = fixed.P(centerX-w/2, baseline)
	d.DrawString(text)
}

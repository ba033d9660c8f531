package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"os"
	"strings"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is how the grant date is printed on a certificate.
const DateLayout = "January 02, 2006"

var (
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	qrColor   = color.RGBA{R: 54, G: 151, B: 193, A: 255}
)

// Layout positions, in template pixels. Y values are the top of the text box.
var (
	nameY       = 680
	cohortPos   = image.Pt(728, 780)
	institution = image.Pt(680, 812)
	datePos     = image.Pt(467, 985)
	badgePos    = image.Pt(745, 528)
	qrPos       = image.Pt(1145, 580)
	qrSize      = 250
)

// CertificateRenderer draws certificates onto a PNG template with a TTF font.
type CertificateRenderer struct {
	templatePath string
	fontPath     string
}

var _ ports.Renderer = (*CertificateRenderer)(nil)

// NewCertificateRenderer creates a renderer reading its assets from disk on
// every render
func NewCertificateRenderer(templatePath, fontPath string) *CertificateRenderer {
	return &CertificateRenderer{
		templatePath: templatePath,
		fontPath:     fontPath,
	}
}

// Render returns the PNG-encoded certificate
func (r *CertificateRenderer) Render(ctx context.Context, d ports.CertificateDetails) ([]byte, error) {
	canvas, err := r.loadTemplate()
	if err != nil {
		return nil, err
	}
	ttf, err := r.loadFont()
	if err != nil {
		return nil, err
	}

	title := cases.Title(language.Und)

	nameFace, err := newFace(ttf, 45)
	if err != nil {
		return nil, err
	}
	smallFace, err := newFace(ttf, 20)
	if err != nil {
		return nil, err
	}
	dateFace, err := newFace(ttf, 35)
	if err != nil {
		return nil, err
	}
	badgeFace, err := newFace(ttf, 30)
	if err != nil {
		return nil, err
	}

	name := title.String(d.Name)
	nameX := (canvas.Bounds().Dx() - font.MeasureString(nameFace, name).Ceil()) / 2
	drawText(canvas, nameFace, name, image.Pt(nameX, nameY))
	drawText(canvas, smallFace, title.String(d.Cohort), cohortPos)
	drawText(canvas, smallFace, strings.ToUpper(d.Institution), institution)
	drawText(canvas, dateFace, d.GrantDate.Format(DateLayout), datePos)
	drawText(canvas, badgeFace, d.BadgeLabel, badgePos)

	qr, err := qrcode.New(d.MetadataURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	qr.ForegroundColor = textColor
	qr.BackgroundColor = qrColor
	code := qr.Image(qrSize)
	draw.Draw(canvas, code.Bounds().Add(qrPos), code, code.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CertificateRenderer) loadTemplate() (*image.RGBA, error) {
	f, err := os.Open(r.templatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: template %s", core.ErrAssetMissing, r.templatePath)
		}
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	return canvas, nil
}

func (r *CertificateRenderer) loadFont() (*opentype.Font, error) {
	data, err := os.ReadFile(r.fontPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: font %s", core.ErrAssetMissing, r.fontPath)
		}
		return nil, fmt.Errorf("read font: %w", err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

func drawText(dst draw.Image, face font.Face, s string, topLeft image.Point) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(topLeft.X, topLeft.Y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

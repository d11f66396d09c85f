package video

import (
	"image"
	"time"

	"golang.org/x/image/draw"
)

// Frame is one decoded image plus the order it arrived in.
type Frame struct {
	Image      image.Image
	Seq        uint64
	ReceivedAt time.Time
}

// Clone returns a frame whose pixels share no memory with f.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	return &Frame{
		Image:      cloneImage(f.Image),
		Seq:        f.Seq,
		ReceivedAt: f.ReceivedAt,
	}
}

func cloneImage(src image.Image) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

// Thumbnail scales img down to fit within maxW x maxH, keeping its aspect
// ratio. Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	tw, th := max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

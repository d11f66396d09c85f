package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"net"
	"sync"
	"time"
)

// Source produces the next encoded still image for a camera stream.
type Source interface {
	Next() ([]byte, error)
}

// CameraServer accepts viewer connections and streams frames from Source to
// each of them in the camera wire format.
type CameraServer struct {
	Source   Source
	Interval time.Duration

	wg sync.WaitGroup
}

// Serve accepts connections on lis until ctx is done.
func (s *CameraServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept viewer: %w", err)
		}
		log.Printf("Viewer %s connected", conn.RemoteAddr())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			if err := s.stream(ctx, conn); err != nil {
				log.Printf("Viewer %s disconnected: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

func (s *CameraServer) stream(ctx context.Context, conn net.Conn) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		payload, err := s.Source.Next()
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		if err := WriteFrame(conn, payload); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// TestPattern renders moving colour bars as JPEG.
type TestPattern struct {
	Width, Height int
	Quality       int

	mu    sync.Mutex
	frame int
}

func (p *TestPattern) Next() ([]byte, error) {
	p.mu.Lock()
	n := p.frame
	p.frame++
	p.mu.Unlock()

	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = 320, 240
	}
	bars := []color.RGBA{
		{255, 255, 255, 255}, {255, 255, 0, 255}, {0, 255, 255, 255}, {0, 255, 0, 255},
		{255, 0, 255, 255}, {255, 0, 0, 255}, {0, 0, 255, 255}, {0, 0, 0, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		c := bars[((x+n*4)*len(bars)/w)%len(bars)]
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	quality := p.Quality
	if quality <= 0 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode test pattern: %w", err)
	}
	return buf.Bytes(), nil
}

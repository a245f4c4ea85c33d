package tip

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	previewTimeout  = 6 * time.Second
	previewMaxBytes = 4 * 1024 * 1024
)

// PreviewLoadedMsg carries a rendered thumbnail of the meme.
type PreviewLoadedMsg struct {
	View    int64
	Preview string
	Err     error
}

var previewClient = &http.Client{Timeout: previewTimeout}

func fetchPreview(view int64, url string, cols, rows int) tea.Cmd {
	return func() tea.Msg {
		preview, err := loadPreview(previewClient, url, cols, rows)
		return PreviewLoadedMsg{View: view, Preview: preview, Err: err}
	}
}

// loadPreview downloads an image (first frame for GIFs) and renders it as
// ANSI half blocks.
func loadPreview(client *http.Client, url string, cols, rows int) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("preview: empty url")
	}
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("preview status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, previewMaxBytes))
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("preview: decode: %w", err)
	}
	return renderThumbnail(img, cols, rows), nil
}

// renderThumbnail samples img into cols x rows cells. Each cell is an upper
// half block: foreground is the top pixel, background the bottom one.
func renderThumbnail(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}
	cols = max(cols, 4)
	rows = max(rows, 2)
	sample := func(x, y int) color.NRGBA {
		sx := b.Min.X + x*b.Dx()/cols
		sy := b.Min.Y + y*b.Dy()/(rows*2)
		return color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
	}

	var out strings.Builder
	for y := range rows {
		for x := range cols {
			top, bottom := sample(x, 2*y), sample(x, 2*y+1)
			fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		out.WriteString("\x1b[0m")
		if y < rows-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

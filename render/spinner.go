package render

import "time"

// Spinner provides an animated loading indicator.
type Spinner struct {
	frames   []string
	frame    int
	lastTick time.Time
	interval time.Duration
}

var (
	waveFrames = []string{
		"▁▂▃▄▅▆▇█", "▂▃▄▅▆▇█▇", "▃▄▅▆▇█▇▆", "▄▅▆▇█▇▆▅",
		"▅▆▇█▇▆▅▄", "▆▇█▇▆▅▄▃", "▇█▇▆▅▄▃▂", "█▇▆▅▄▃▂▁",
		"▇▆▅▄▃▂▁▂", "▆▅▄▃▂▁▂▃", "▅▄▃▂▁▂▃▄", "▄▃▂▁▂▃▄▅",
		"▃▂▁▂▃▄▅▆", "▂▁▂▃▄▅▆▇",
	}
)

// NewWaveSpinner creates the wave spinner shown while a page loads.
func NewWaveSpinner() *Spinner {
	return &Spinner{frames: waveFrames, lastTick: time.Now(), interval: 60 * time.Millisecond}
}

// Tick advances the animation if enough time has passed.
// Returns true if the frame changed.
func (s *Spinner) Tick() bool {
	now := time.Now()
	if now.Sub(s.lastTick) < s.interval {
		return false
	}
	s.frame++
	s.lastTick = now
	return true
}

// Frame returns the current animation frame.
func (s *Spinner) Frame() string {
	return s.frames[s.frame%len(s.frames)]
}

// LoadingDisplay is a spinner plus a message drawn in a centered box.
type LoadingDisplay struct {
	spinner *Spinner
	message string
}

// NewLoadingDisplay creates a loading display for message, typically a URL.
func NewLoadingDisplay(message string) *LoadingDisplay {
	return &LoadingDisplay{spinner: NewWaveSpinner(), message: message}
}

// Tick advances the animation.
func (ld *LoadingDisplay) Tick() bool {
	return ld.spinner.Tick()
}

// Draw renders the display in a rounded box centered on c.
func (ld *LoadingDisplay) Draw(c *Canvas, title string) {
	frame := ld.spinner.Frame()
	message := TruncateLeft(ld.message, c.Width()-StringWidth(frame)-10)
	textWidth := StringWidth(frame) + 1 + StringWidth(message)

	boxWidth := textWidth + 6
	if boxWidth < 30 {
		boxWidth = 30
	}
	boxHeight := 5
	startX := (c.Width() - boxWidth) / 2
	startY := (c.Height() - boxHeight) / 2

	for y := startY; y < startY+boxHeight; y++ {
		c.FillLine(startX, y, boxWidth, Style{})
	}
	c.DrawBoxWithTitle(startX, startY, boxWidth, boxHeight, title, RoundedBox, Style{}, Style{Bold: true})

	x := startX + (boxWidth-textWidth)/2
	n := c.WriteString(x, startY+2, frame, Style{Bold: true, FgColor: ColorCyan})
	c.WriteString(x+n+1, startY+2, message, Style{})
}

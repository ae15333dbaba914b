package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/termreel/internal/playback"
)

var (
	accent = lipgloss.Color("#FF6B35")
	muted  = lipgloss.Color("#90A4AE")
	warn   = lipgloss.Color("#FFB74D")
	good   = lipgloss.Color("#66BB6A")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(12)

	valueStyle = lipgloss.NewStyle().Bold(true)
)

// Summary renders a panel describing a finished playback.
func Summary(input string, stats playback.Stats, interval time.Duration) string {
	overrunColor := good
	if stats.Overruns > 0 {
		overrunColor = warn
	}

	fps := 0.0
	if stats.Elapsed > 0 {
		fps = float64(stats.Frames) / stats.Elapsed.Seconds()
	}

	rows := [][2]string{
		{"frames", fmt.Sprintf("%d", stats.Frames)},
		{"cells", fmt.Sprintf("%d", stats.Cells)},
		{"bytes", fmt.Sprintf("%d", stats.Bytes)},
		{"elapsed", stats.Elapsed.Round(time.Millisecond).String()},
		{"rate", fmt.Sprintf("%.2f fps (target %.2f)", fps, targetFPS(interval))},
		{"slowest", stats.MaxWork.Round(time.Microsecond).String()},
	}

	lines := []string{titleStyle.Render("termreel ▸ " + input)}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
	lines = append(lines, labelStyle.Render("overruns")+
		valueStyle.Foreground(overrunColor).Render(fmt.Sprintf("%d", stats.Overruns)))

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func targetFPS(interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(time.Second) / float64(interval)
}

package buttercup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/topi314/buttercup/blossom"
)

const (
	heatmapCellSize     = 50
	heatmapMarginLeft   = 70
	heatmapMarginTop    = 60
	heatmapMarginRight  = 20
	heatmapMarginBottom = 70

	HeatmapWidth  = heatmapMarginLeft + 24*heatmapCellSize + heatmapMarginRight
	HeatmapHeight = heatmapMarginTop + 7*heatmapCellSize + heatmapMarginBottom

	HeatmapFileName = "heatmap_table.png"
)

var (
	HeatmapDays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	heatmapBackground = drawing.ColorFromHex("36393f")
	heatmapTextColor  = drawing.ColorFromHex("dcddde")
)

// HeatmapGrid holds the completed transcriptions per weekday (Monday first) and hour.
type HeatmapGrid struct {
	Counts  [7][24]int
	Present [7][24]bool
}

// NewHeatmapGrid pivots the API entries into a grid. Days are 1 (Monday) to 7 (Sunday),
// entries outside the grid are ignored.
func NewHeatmapGrid(entries []blossom.HeatmapEntry) HeatmapGrid {
	var grid HeatmapGrid
	for _, entry := range entries {
		day := entry.Day - 1
		if day < 0 || day > 6 || entry.Hour < 0 || entry.Hour > 23 {
			continue
		}
		grid.Counts[day][entry.Hour] += entry.Count
		grid.Present[day][entry.Hour] = true
	}
	return grid
}

func (g HeatmapGrid) Max() int {
	var m int
	for day := range g.Counts {
		for hour := range g.Counts[day] {
			if g.Present[day][hour] && g.Counts[day][hour] > m {
				m = g.Counts[day][hour]
			}
		}
	}
	return m
}

func (g HeatmapGrid) Total() int {
	var total int
	for day := range g.Counts {
		for hour := range g.Counts[day] {
			total += g.Counts[day][hour]
		}
	}
	return total
}

// RenderHeatmap draws grid as a PNG. Cells fade from the background to color with their count,
// cells without data stay empty.
func RenderHeatmap(w io.Writer, grid HeatmapGrid, title string, xLabel string, color drawing.Color) error {
	r, err := chart.PNG(HeatmapWidth, HeatmapHeight)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)

	fillRect(r, 0, 0, HeatmapWidth, HeatmapHeight, heatmapBackground)

	maxCount := grid.Max()
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			if !grid.Present[day][hour] {
				continue
			}
			x := heatmapMarginLeft + hour*heatmapCellSize
			y := heatmapMarginTop + day*heatmapCellSize

			var ratio float64
			if maxCount > 0 {
				ratio = float64(grid.Counts[day][hour]) / float64(maxCount)
			}
			cellColor := blendColor(heatmapBackground, color, ratio)
			fillRect(r, x, y, x+heatmapCellSize, y+heatmapCellSize, cellColor)

			r.SetFontSize(10)
			r.SetFontColor(labelColor(cellColor))
			drawCentered(r, strconv.Itoa(grid.Counts[day][hour]), x+heatmapCellSize/2, y+heatmapCellSize/2)
		}
	}

	r.SetFontSize(10)
	r.SetFontColor(heatmapTextColor)
	for hour := 0; hour < 24; hour++ {
		drawCentered(r, fmt.Sprintf("%02d", hour), heatmapMarginLeft+hour*heatmapCellSize+heatmapCellSize/2, heatmapMarginTop+7*heatmapCellSize+15)
	}
	for day, name := range HeatmapDays {
		drawCentered(r, name, heatmapMarginLeft-25, heatmapMarginTop+day*heatmapCellSize+heatmapCellSize/2)
	}

	r.SetFontSize(12)
	drawCentered(r, xLabel, heatmapMarginLeft+12*heatmapCellSize, HeatmapHeight-20)

	r.SetTextRotation(-math.Pi / 2)
	drawCentered(r, "Weekday", 15, heatmapMarginTop+7*heatmapCellSize/2)
	r.ClearTextRotation()

	r.SetFontSize(14)
	drawCentered(r, title, HeatmapWidth/2, heatmapMarginTop/2)

	return r.Save(w)
}

func fillRect(r chart.Renderer, left int, top int, right int, bottom int, color drawing.Color) {
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.SetStrokeWidth(0)
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.Close()
	r.Fill()
}

// drawCentered draws text centered on x and y.
func drawCentered(r chart.Renderer, text string, x int, y int) {
	box := r.MeasureText(text)
	r.Text(text, x-box.Width()/2, y+box.Height()/2)
}

func blendColor(from drawing.Color, to drawing.Color, ratio float64) drawing.Color {
	ratio = math.Max(0, math.Min(1, ratio))
	mix := func(a uint8, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*ratio))
	}
	return drawing.Color{
		R: mix(from.R, to.R),
		G: mix(from.G, to.G),
		B: mix(from.B, to.B),
		A: 255,
	}
}

// labelColor picks a text color readable on top of background.
func labelColor(background drawing.Color) drawing.Color {
	luminance := 0.299*float64(background.R) + 0.587*float64(background.G) + 0.114*float64(background.B)
	if luminance > 140 {
		return drawing.ColorBlack
	}
	return drawing.ColorWhite
}

func rankColor(rank Rank) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(rank.Color, "#"))
}

// RankProgress describes how far gamma is from the next rank.
func RankProgress(gamma int) string {
	rank := RankOf(gamma)
	next, ok := NextRank(gamma)
	if !ok {
		return printer.Sprintf("Rank %s with %d Γ, the highest rank.", rank.Name, gamma)
	}
	return fmt.Sprintf("Rank %s, %s to %s", rank.Name, ProgressBar(gamma, next.Threshold, 10, true, true), next.Name)
}

type HeatmapRequest struct {
	Username string
	// Invoker is the display name of the Discord user running the command.
	Invoker string
	After   *time.Time
	Before  *time.Time
	TimeStr string
	Start   time.Time
}

type HeatmapResult struct {
	Content string
	Image   *bytes.Buffer
}

// Heatmapper builds heatmap images of volunteers.
type Heatmapper struct {
	Blossom BlossomAPI
	Users   Users
}

func (h Heatmapper) Generate(ctx context.Context, rq HeatmapRequest) (*HeatmapResult, error) {
	utcOffset := ExtractUTCOffset(rq.Invoker)

	user, err := h.Users.Get(ctx, rq.Username, rq.Invoker)
	if err != nil {
		return nil, err
	}

	entries, err := h.Blossom.Heatmap(ctx, blossom.HeatmapQuery{
		CompletedBy: UserID(user),
		UTCOffset:   utcOffset,
		After:       rq.After,
		Before:      rq.Before,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting heatmap: %w", err)
	}

	gamma, err := h.Users.Gamma(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error getting gamma: %w", err)
	}

	buf := new(bytes.Buffer)
	if err = RenderHeatmap(buf,
		NewHeatmapGrid(entries),
		fmt.Sprintf("Activity Heatmap of %s", plainUsername(user)),
		fmt.Sprintf("Time (%s)", UTCOffsetString(utcOffset)),
		rankColor(RankOf(gamma)),
	); err != nil {
		return nil, fmt.Errorf("error rendering heatmap: %w", err)
	}

	return &HeatmapResult{
		Content: fmt.Sprintf("Here is the heatmap for %s %s (%s).\n%s", Username(user), rq.TimeStr, DurationString(time.Since(rq.Start)), RankProgress(gamma)),
		Image:   buf,
	}, nil
}

// plainUsername is Username without Discord markdown escapes for use in images.
func plainUsername(user *blossom.Volunteer) string {
	if user == nil {
		return "everyone"
	}
	return "u/" + user.Username
}

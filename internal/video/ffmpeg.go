package video

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderPlan is everything BuildArgs needs to render one clip.
type RenderPlan struct {
	Assets     Assets
	Layout     Layout
	TextFiles  map[string]string
	FontFile   string
	Output     string
	Duration   float64
	Fade       float64
	FPS        int
	VideoCodec string
	AudioCodec string
}

const (
	silentSource  = "anullsrc=channel_layout=stereo:sample_rate=44100"
	cardColor     = "0x2d2d2d@0.78"
	backdropColor = "0x2d2d2d@0.70"
)

// BuildArgs returns the ffmpeg argument list for plan. Text is read from the
// files named in plan.TextFiles, keyed by Text.Name.
func BuildArgs(plan RenderPlan) []string {
	l := plan.Layout
	dur := formatSeconds(plan.Duration)
	fps := strconv.Itoa(plan.FPS)

	args := []string{"-hide_banner", "-loglevel", "error", "-y",
		"-loop", "1", "-framerate", fps, "-t", dur, "-i", plan.Assets.Background,
	}
	// Without music the clip still carries a silent stereo track.
	if plan.Assets.Music != "" {
		args = append(args, "-i", plan.Assets.Music)
	} else {
		args = append(args, "-f", "lavfi", "-t", dur, "-i", silentSource)
	}
	const audioInput = 1
	next := 2
	type iconInput struct {
		index int
		rect  Rect
	}
	var icons []iconInput
	for _, candidate := range []struct {
		path string
		rect Rect
	}{
		{plan.Assets.Icons.Torch, l.LeftIcon},
		{plan.Assets.Icons.Camera, l.RightIcon},
		{plan.Assets.Icons.Logo, l.Logo},
	} {
		if candidate.path == "" {
			continue
		}
		args = append(args, "-loop", "1", "-framerate", fps, "-t", dur, "-i", candidate.path)
		icons = append(icons, iconInput{index: next, rect: candidate.rect})
		next++
	}

	var graph []string
	photoH := l.Height - l.Band.H
	base := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", l.Width, photoH),
		fmt.Sprintf("crop=%d:%d", l.Width, photoH),
		"format=gray",
		"eq=contrast=1.25",
		"format=yuv420p",
		fmt.Sprintf("pad=%d:%d:0:%d:color=white", l.Width, l.Height, l.Band.H),
		drawBox(l.Card, cardColor),
	}
	if plan.Assets.Icons.Torch != "" {
		base = append(base, drawBox(l.LeftBackdrop, backdropColor))
	}
	if plan.Assets.Icons.Camera != "" {
		base = append(base, drawBox(l.RightBackdrop, backdropColor))
	}
	for _, text := range l.Texts() {
		base = append(base, drawText(text, plan.TextFiles[text.Name], plan.FontFile, textColor(text)))
	}
	graph = append(graph, "[0:v]"+strings.Join(base, ",")+"[v0]")

	current := "v0"
	for i, icon := range icons {
		scaled := fmt.Sprintf("i%d", i)
		graph = append(graph, fmt.Sprintf("[%d:v]scale=%d:%d,format=rgba,lutrgb=r=255:g=255:b=255[%s]",
			icon.index, icon.rect.W, icon.rect.H, scaled))
		out := fmt.Sprintf("v%d", i+1)
		graph = append(graph, fmt.Sprintf("[%s][%s]overlay=%d:%d:shortest=1[%s]", current, scaled, icon.rect.X, icon.rect.Y, out))
		current = out
	}
	fadeOut := formatSeconds(plan.Duration - plan.Fade)
	fade := formatSeconds(plan.Fade)
	graph = append(graph, fmt.Sprintf("[%s]fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s,format=yuv420p[vout]", current, fade, fadeOut, fade))
	graph = append(graph, fmt.Sprintf("[%d:a]afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s[aout]", audioInput, fade, fadeOut, fade))

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:a", plan.AudioCodec,
		"-shortest",
		"-c:v", plan.VideoCodec,
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-t", dur,
		"-movflags", "+faststart",
		plan.Output,
	)
	return args
}

func textColor(t Text) string {
	switch t.Name {
	case "overlay":
		return "white@0.86"
	case "app", "now", "message":
		return "white"
	default:
		return "black"
	}
}

func drawBox(r Rect, color string) string {
	return fmt.Sprintf("drawbox=x=%d:y=%d:w=%d:h=%d:color=%s:t=fill", r.X, r.Y, r.W, r.H, color)
}

func drawText(t Text, file, fontFile, color string) string {
	parts := []string{"drawtext=textfile=" + quoteFilterValue(file)}
	if fontFile != "" {
		parts = append(parts, "fontfile="+quoteFilterValue(fontFile))
	} else {
		parts = append(parts, "font=Sans")
	}
	x := strconv.Itoa(t.X)
	if t.Centered {
		x = "(w-text_w)/2"
	}
	parts = append(parts,
		"fontsize="+strconv.Itoa(t.FontSize),
		"fontcolor="+color,
		"x="+x,
		"y="+strconv.Itoa(t.Y),
	)
	if t.Spacing > 0 {
		parts = append(parts, "line_spacing="+strconv.Itoa(t.Spacing))
	}
	if t.Name == "overlay" {
		parts = append(parts, "shadowcolor=white@0.4", "shadowx=1", "shadowy=1")
	}
	return strings.Join(parts, ":")
}

// quoteFilterValue escapes a path for use as a filter option value.
func quoteFilterValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\\\`, `'`, `\\\'`, `:`, `\\:`, `,`, `\,`, `;`, `\;`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(value)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

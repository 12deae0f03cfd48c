package video

import (
	"slices"
	"strings"
	"testing"
)

func testSpec(music bool, icons Icons) RenderPlan {
	layout := NewLayout(1080, 1920, "POV: Duolingo has finally a worthy opponent", "You scrolled 3h. Achievement: none.")
	files := map[string]string{}
	for _, text := range layout.Texts() {
		files[text.Name] = "/tmp/work/" + text.Name + ".txt"
	}
	assets := Assets{Background: "/bg/city.jpg", Icons: icons}
	if music {
		assets.Music = "/music/track.mp3"
	}
	return RenderPlan{
		Assets:     assets,
		Layout:     layout,
		TextFiles:  files,
		Output:     "/out/lockscreen_1234.mp4",
		Duration:   6,
		Fade:       1,
		FPS:        24,
		VideoCodec: "libx264",
		AudioCodec: "aac",
	}
}

func argValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestBuildArgsWithMusicAndIcons(t *testing.T) {
	args := BuildArgs(testSpec(true, Icons{Torch: "/icons/torch.png", Camera: "/icons/camera.png"}))

	if args[len(args)-1] != "/out/lockscreen_1234.mp4" {
		t.Fatalf("output should be last, got %q", args[len(args)-1])
	}
	inputs := 0
	for _, a := range args {
		if a == "-i" {
			inputs++
		}
	}
	if inputs != 4 {
		t.Fatalf("expected 4 inputs, got %d", inputs)
	}
	graph := argValue(args, "-filter_complex")
	for _, want := range []string{
		"format=gray",
		"fade=t=in:st=0:d=1",
		"fade=t=out:st=5:d=1",
		"[1:a]afade=t=in:st=0:d=1,afade=t=out:st=5:d=1[aout]",
		"textfile=/tmp/work/overlay.txt",
		"font=Sans",
		"[2:v]scale=70:70",
		"[3:v]scale=70:70",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("filter graph missing %q:\n%s", want, graph)
		}
	}
	if !slices.Contains(args, "-shortest") || argValue(args, "-c:a") != "aac" {
		t.Fatalf("expected audio encode flags, got %v", args)
	}
	if argValue(args, "-c:v") != "libx264" || argValue(args, "-r") != "24" || argValue(args, "-movflags") != "+faststart" {
		t.Fatalf("unexpected encode flags %v", args)
	}
}

func TestBuildArgsSilent(t *testing.T) {
	args := BuildArgs(testSpec(false, Icons{}))
	i := slices.Index(args, silentSource)
	if i < 4 || args[i-1] != "-i" || args[i-2] != "6" || args[i-3] != "-t" || args[i-4] != "lavfi" {
		t.Fatalf("expected a timed lavfi silence input, got %v", args)
	}
	if !slices.Contains(args, "[aout]") || argValue(args, "-c:a") != "aac" {
		t.Fatalf("silent render should still map an audio track: %v", args)
	}
	graph := argValue(args, "-filter_complex")
	if !strings.Contains(graph, "[1:a]afade=") {
		t.Fatalf("expected silence to feed the audio chain: %s", graph)
	}
	if strings.Contains(graph, "overlay=") {
		t.Fatalf("unexpected icon filters: %s", graph)
	}
}

func TestQuoteFilterValue(t *testing.T) {
	got := quoteFilterValue(`C:\fonts\it's,[x].ttf`)
	want := `C\\:\\\\fonts\\\\it\\\'s\,\[x\].ttf`
	if got != want {
		t.Fatalf("quoteFilterValue = %s, want %s", got, want)
	}
}

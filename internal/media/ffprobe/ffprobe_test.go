package ffprobe

import "testing"

func TestParseAndHelpers(t *testing.T) {
	payload := []byte(`{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920, "duration": "6.000000"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "duration": "5.980000"}
  ],
  "format": {"filename": "lockscreen_1234.mp4", "duration": "6.016000", "size": "1048576", "format_name": "mov,mp4"}
}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.DurationSeconds(); got != 6.016 {
		t.Fatalf("DurationSeconds = %v", got)
	}
	if got := result.SizeBytes(); got != 1048576 {
		t.Fatalf("SizeBytes = %d", got)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "5.5"}, {CodecType: "audio", Duration: "9"}},
		Format:  Format{Duration: "N/A", Size: "-1"},
	}
	if got := result.DurationSeconds(); got != 5.5 {
		t.Fatalf("DurationSeconds = %v, want 5.5", got)
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0 for invalid value, got %d", result.SizeBytes())
	}
	if result.HasAudio() != true {
		t.Fatal("expected audio")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

package domain

import "testing"

func TestModeFamily(t *testing.T) {
	cases := []struct {
		mode Mode
		want Family
	}{
		{ModeSourceImageToVideo, FamilyVideo},
		{ModeTextToVideo, FamilyVideo},
		{ModeGeneratedImageToVideo, FamilyVideo},
		{ModeUploadImage, FamilyImage},
		{ModeTextToImage, FamilyImage},
		{ModeReferenceComposition, FamilyImage},
	}
	for _, tc := range cases {
		if got := tc.mode.Family(); got != tc.want {
			t.Fatalf("Family(%s) = %s, want %s", tc.mode, got, tc.want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobStatusQueued.Terminal() || JobStatusInProgress.Terminal() {
		t.Fatalf("queued/in_progress reported terminal")
	}
	if !JobStatusCompleted.Terminal() || !JobStatusFailed.Terminal() {
		t.Fatalf("completed/failed not reported terminal")
	}
}

func TestOutputConfigWithDefaults(t *testing.T) {
	cases := []struct {
		name       string
		in         OutputConfig
		family     Family
		wantW      int
		wantH      int
		wantAspect string
	}{
		{name: "video defaults", family: FamilyVideo, wantW: 1280, wantH: 720, wantAspect: "16:9"},
		{name: "image defaults", family: FamilyImage, wantW: 1024, wantH: 1024, wantAspect: "1:1"},
		{
			name:       "portrait video",
			in:         OutputConfig{AspectRatio: "9:16"},
			family:     FamilyVideo,
			wantW:      720,
			wantH:      1280,
			wantAspect: "9:16",
		},
		{
			name:       "explicit dimensions win",
			in:         OutputConfig{Width: 640, Height: 480, AspectRatio: "16:9"},
			family:     FamilyVideo,
			wantW:      640,
			wantH:      480,
			wantAspect: "16:9",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.WithDefaults(tc.family)
			if got.Width != tc.wantW || got.Height != tc.wantH {
				t.Fatalf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, tc.wantW, tc.wantH)
			}
			if got.AspectRatio != tc.wantAspect {
				t.Fatalf("aspect = %q, want %q", got.AspectRatio, tc.wantAspect)
			}
			if tc.family == FamilyVideo && got.DurationSeconds == 0 {
				t.Fatalf("video duration not defaulted")
			}
		})
	}
}

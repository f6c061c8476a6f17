package video

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
)

// syntheticBackend is the in-process stand-in used when no API key is
// configured. Jobs advance one step per status check and complete after a few
// polls, which keeps the orchestrator's full submit/poll/download loop
// exercisable offline. Unknown ids are re-seeded on first contact so jobs
// recovered after a restart still make progress.
type syntheticBackend struct {
	mu   sync.Mutex
	seq  uint64
	jobs map[string]*syntheticJob
}

type syntheticJob struct {
	prompt string
	polls  int
}

const syntheticPollsToComplete = 3

func newSyntheticBackend() *syntheticBackend {
	return &syntheticBackend{jobs: make(map[string]*syntheticJob)}
}

func (b *syntheticBackend) submit(req SubmitRequest) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", req.Prompt, len(req.ImageData), b.seq)))
	id := "synth-" + hex.EncodeToString(sum[:8])
	b.jobs[id] = &syntheticJob{prompt: req.Prompt}
	return id
}

func (b *syntheticBackend) checkStatus(externalID string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[externalID]
	if !ok {
		job = &syntheticJob{}
		b.jobs[externalID] = job
	}
	job.polls++
	if job.polls >= syntheticPollsToComplete {
		return Status{State: StateCompleted, Progress: 100}
	}
	return Status{State: StateRunning, Progress: job.polls * 100 / syntheticPollsToComplete}
}

func (b *syntheticBackend) downloadAsset(externalID, variant string) ([]byte, string, error) {
	seed := deterministicSeed(externalID + "|" + variant)
	if variant == VariantThumbnail {
		return renderSyntheticFrame(seed), "image/png", nil
	}
	return syntheticVideoBytes(seed), "video/mp4", nil
}

func deterministicSeed(input string) uint64 {
	sum := sha256.Sum256([]byte(input))
	return binary.BigEndian.Uint64(sum[:8])
}

// syntheticVideoBytes produces a small byte stream that starts with an MP4
// ftyp box so downstream MIME sniffing behaves, followed by seeded filler.
func syntheticVideoBytes(seed uint64) []byte {
	header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	}
	payload := make([]byte, 2048)
	state := seed
	for i := range payload {
		state = state*6364136223846793005 + 1442695040888963407
		payload[i] = byte(state >> 56)
	}
	return append(header, payload...)
}

// renderSyntheticFrame draws a striped placeholder keyed off the seed.
func renderSyntheticFrame(seed uint64) []byte {
	const width, height = 320, 180
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := color.RGBA{
		R: uint8(seed >> 16),
		G: uint8(seed >> 8),
		B: uint8(seed),
		A: 255,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := base
			if (x/20+y/20)%2 == 0 {
				c = color.RGBA{R: 255 - base.R, G: 255 - base.G, B: 255 - base.B, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"time"

	"github.com/voxkit/edgetts/internal/config"
	"github.com/voxkit/edgetts/internal/logging"
	"github.com/voxkit/edgetts/internal/synth"
	"github.com/voxkit/edgetts/pkg/srt"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file (optional)")
	inputText := flag.String("text", "", "Text to synthesize")
	voice := flag.String("voice", "", "Voice short name, e.g. en-US-AriaNeural")
	rate := flag.String("rate", "", "Speech rate, e.g. +10%")
	volume := flag.String("volume", "", "Volume, e.g. -5%")
	pitch := flag.String("pitch", "", "Pitch, e.g. +0Hz")
	boundary := flag.String("boundary", "", "Boundary metadata granularity (word|sentence)")
	format := flag.String("format", "", "Output audio format string")
	output := flag.String("output", "", "Write audio to file instead of playing")
	srtPath := flag.String("srt", "", "Write subtitles to this SRT file")
	srtWords := flag.Int("srt-words", 10, "Words per subtitle cue")
	player := flag.String("player", "", "Player executable for streaming playback")
	flag.Parse()

	if err := logging.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	logging.SetTraceID(logging.NewTraceID())

	if strings.TrimSpace(*inputText) == "" {
		logging.Fatalf("-text is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("load config failed: %v", err)
	}
	applyFlag(&cfg.Speech.Voice, *voice)
	applyFlag(&cfg.Speech.Rate, *rate)
	applyFlag(&cfg.Speech.Volume, *volume)
	applyFlag(&cfg.Speech.Pitch, *pitch)
	applyFlag(&cfg.Speech.Boundary, *boundary)
	applyFlag(&cfg.Speech.Format, *format)
	applyFlag(&cfg.Speech.Player, *player)

	comm, err := synth.New(cfg.SynthConfig(),
		synth.WithOutputFormat(cfg.Speech.Format),
		synth.WithConnectTimeout(time.Duration(cfg.Speech.ConnectTimeoutSec)*time.Second),
		synth.WithReceiveTimeout(time.Duration(cfg.Speech.ReceiveTimeoutSec)*time.Second),
	)
	if err != nil {
		logging.Fatalf("invalid voice settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stream, err := comm.Stream(ctx, *inputText)
	if err != nil {
		logging.Fatalf("start synthesis failed: %v", err)
	}
	defer stream.Close()

	sink, closeSink, err := openSink(ctx, *output, cfg.Speech.Player)
	if err != nil {
		logging.Fatalf("open audio sink failed: %v", err)
	}

	maker := srt.NewMaker(*srtWords)
	var audioBytes int
	for ev := range stream.Events() {
		switch ev := ev.(type) {
		case synth.AudioChunk:
			audioBytes += len(ev.Data)
			if _, err := sink.Write(ev.Data); err != nil {
				logging.Fatalf("write audio failed: %v", err)
			}
		case synth.BoundaryMark:
			logging.Debugf("boundary %s at %d ticks: %q", ev.Kind, ev.Offset, ev.Text)
			maker.Feed(ev.Offset, ev.Duration, ev.Text)
		}
	}
	if err := closeSink(); err != nil {
		logging.Errorf("audio sink close failed: %v", err)
	}
	if err := stream.Err(); err != nil {
		logging.Fatalf("synthesis failed: %v", err)
	}
	logging.Infof("synthesis complete: %d audio bytes", audioBytes)

	if *srtPath != "" {
		if err := os.WriteFile(*srtPath, []byte(maker.Render()), 0o644); err != nil {
			logging.Fatalf("write subtitles failed: %v", err)
		}
		logging.Infof("wrote subtitles to %s", *srtPath)
	}
}

func applyFlag(target *string, value string) {
	if strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

// openSink returns a writer for the synthesized audio: a file when -output
// is set, otherwise the stdin of a streaming player process.
func openSink(ctx context.Context, outputPath, player string) (io.Writer, func() error, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return file, file.Close, nil
	}

	if player == "" {
		return nil, nil, fmt.Errorf("no -output file and no player configured")
	}
	path, err := exec.LookPath(player)
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.CommandContext(ctx, path, "-autoexit", "-nodisp", "-loglevel", "warning", "-i", "pipe:0")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, nil, err
	}
	closeSink := func() error {
		_ = stdin.Close()
		return cmd.Wait()
	}
	return stdin, closeSink, nil
}

// Command engineer runs the race engineer: it ingests telemetry from a
// configured source, maintains the derived context, serves the HTTP API,
// and answers driver questions over stdin or voice.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/apex-data/race.engineer/internal/ai"
	"github.com/apex-data/race.engineer/internal/api"
	"github.com/apex-data/race.engineer/internal/config"
	"github.com/apex-data/race.engineer/internal/db"
	"github.com/apex-data/race.engineer/internal/monitoring"
	"github.com/apex-data/race.engineer/internal/source"
	"github.com/apex-data/race.engineer/internal/telemetry"
	"github.com/apex-data/race.engineer/internal/timeutil"
	"github.com/apex-data/race.engineer/internal/version"
	"github.com/apex-data/race.engineer/internal/voice"
)

var (
	configPath  = flag.String("config", "", "Path to JSON config file")
	sourceFlag  = flag.String("source", "", "Telemetry source: udp, serial or sim (overrides config)")
	listenFlag  = flag.String("listen", "", "HTTP API listen address (overrides config)")
	dbFlag      = flag.String("db", "", "Path to session database (overrides config; empty disables recording)")
	voiceFlag   = flag.Bool("voice", false, "Enable push-to-talk voice input")
	debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	versionFlag = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("race.engineer %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			monitoring.Logf("Failed to load config: %v", err)
			os.Exit(1)
		}
	}

	if *debugFlag || cfg.GetDebug() {
		monitoring.EnableDebug()
	}

	sourceName := cfg.GetSource()
	if *sourceFlag != "" {
		sourceName = *sourceFlag
	}
	listen := cfg.GetListen()
	if *listenFlag != "" {
		listen = *listenFlag
	}
	dbPath := cfg.GetDBPath()
	if *dbFlag != "" {
		dbPath = *dbFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}

	reader, sourceName := openReader(sourceName, cfg, clock)
	defer reader.Disconnect()

	engine := telemetryEngine(cfg, clock)

	var store *db.DB
	var sessionID string
	if dbPath != "" {
		var err error
		store, err = db.Open(dbPath)
		if err != nil {
			monitoring.Logf("Failed to open session database: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		sessionID, err = store.CreateSession(sourceName)
		if err != nil {
			monitoring.Logf("Failed to create session: %v", err)
			os.Exit(1)
		}
		monitoring.Logf("Recording session %s", sessionID)
		defer func() {
			if err := store.EndSession(sessionID); err != nil {
				monitoring.Logf("Failed to end session: %v", err)
			}
		}()
	}

	client := ai.NewOllamaClient(ai.OllamaOptions{
		URL:         cfg.GetOllamaURL(),
		Model:       cfg.GetOllamaModel(),
		Temperature: cfg.GetOllamaTemperature(),
		MaxTokens:   cfg.GetOllamaMaxTokens(),
		Timeout:     cfg.GetOllamaTimeout(),
	})
	if client.IsAvailable(ctx) {
		monitoring.Logf("Ollama is up, using model %s", client.Model())
	} else {
		monitoring.Logf("Warning: Ollama is not reachable at %s; answers will fall back", cfg.GetOllamaURL())
	}
	prompt := &ai.PromptBuilder{MaxBytes: cfg.GetMaxPromptBytes()}

	var speaker voice.Speaker = voice.NullSpeaker{}
	if tts := cfg.GetTTSCommand(); len(tts) > 0 {
		speaker = voice.NewCommandSpeaker(tts[0], tts[1:]...)
	}
	defer speaker.Close()

	var wg sync.WaitGroup

	// Poll the reader at the configured rate feeding the engine (and the
	// session store when recording).
	wg.Add(1)
	go func() {
		defer wg.Done()
		pollLoop(ctx, clock, cfg.GetUpdateRateHz(), reader, engine, store, sessionID)
		monitoring.Debugf("poll loop terminated")
	}()

	if listen != "" {
		server := api.NewServer(engine, client, prompt, store, cfg.GetUnits())
		server.SetSessionID(sessionID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Serve(ctx, listen); err != nil {
				monitoring.Logf("HTTP server error: %v", err)
			}
		}()
	}

	// Driver input loop on the main goroutine.
	if *voiceFlag || cfg.GetVoiceEnabled() {
		runVoiceLoop(ctx, cfg, engine, client, prompt, speaker, store, sessionID)
	} else {
		runTextLoop(ctx, engine, client, prompt, speaker, store, sessionID)
	}

	stop()
	wg.Wait()
}

// telemetryEngine builds the context engine from config.
func telemetryEngine(cfg *config.Config, clock timeutil.Clock) *telemetry.Engine {
	return telemetry.NewEngine(telemetry.EngineOptions{
		HistorySize:     cfg.GetHistorySize(),
		TireTrendWindow: cfg.GetTireTrendWindow(),
		FuelRateWindow:  cfg.GetFuelRateWindow(),
		Units:           cfg.GetUnits(),
		Clock:           clock,
	})
}

// openReader connects the requested source, falling back to the simulator
// when a live source cannot be reached. Returns the reader and the name of
// the source actually in use.
func openReader(name string, cfg *config.Config, clock timeutil.Clock) (source.TelemetryReader, string) {
	var reader source.TelemetryReader
	switch name {
	case "udp":
		reader = source.NewUDPReader(cfg.GetUDPListen())
	case "serial":
		reader = source.NewSerialReader(cfg.GetSerialPort(), cfg.GetSerialBaud())
	default:
		name = "sim"
		reader = source.NewSimulator(time.Now().UnixNano(), clock)
	}

	if err := reader.Connect(); err != nil {
		monitoring.Logf("Failed to connect %s source: %v; falling back to simulator", name, err)
		name = "sim"
		reader = source.NewSimulator(time.Now().UnixNano(), clock)
		if err := reader.Connect(); err != nil {
			monitoring.Logf("Failed to start simulator: %v", err)
			os.Exit(1)
		}
	}
	monitoring.Logf("Telemetry source: %s", name)
	return reader, name
}

func pollLoop(ctx context.Context, clock timeutil.Clock, rateHz int, reader source.TelemetryReader, engine *telemetry.Engine, store *db.DB, sessionID string) {
	ticker := clock.NewTicker(time.Second / time.Duration(rateHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			sample, err := reader.Read()
			if err != nil {
				monitoring.Debugf("read error: %v", err)
				continue
			}
			if sample == nil {
				continue
			}
			engine.Update(*sample)
			if store != nil {
				if err := store.RecordSample(sessionID, sample); err != nil {
					monitoring.Logf("Failed to record sample: %v", err)
				}
			}
		}
	}
}

// ask snapshots the engine context, queries the model, and speaks and
// records the answer. The model call happens outside any engine locking.
func ask(ctx context.Context, question string, engine *telemetry.Engine, client ai.Client, prompt *ai.PromptBuilder, speaker voice.Speaker, store *db.DB, sessionID string) {
	built := prompt.Build(question, engine.Context())

	answer, err := client.Generate(ctx, built)
	if err != nil {
		monitoring.Logf("Model call failed: %v", err)
		answer = ai.FallbackResponse
	}

	fmt.Printf("\nEngineer: %s\n\n", answer)
	speaker.Speak(answer)

	if store != nil && sessionID != "" {
		if err := store.RecordExchange(sessionID, question, answer); err != nil {
			monitoring.Logf("Failed to record exchange: %v", err)
		}
	}
}

// runTextLoop reads questions from stdin until EOF or shutdown. The
// "status" keyword prints the deterministic summary without a model call.
func runTextLoop(ctx context.Context, engine *telemetry.Engine, client ai.Client, prompt *ai.PromptBuilder, speaker voice.Speaker, store *db.DB, sessionID string) {
	fmt.Println("Ask your race engineer (type 'status' for a summary, Ctrl-D to quit):")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			question := strings.TrimSpace(line)
			if question == "" {
				continue
			}
			if strings.EqualFold(question, "status") {
				fmt.Printf("\nEngineer: %s\n\n", engine.Summary())
				continue
			}
			ask(ctx, question, engine, client, prompt, speaker, store, sessionID)
		}
	}
}

// runVoiceLoop implements push-to-talk: Enter starts the recorder, Enter
// again stops it, and the clip is transcribed then answered.
func runVoiceLoop(ctx context.Context, cfg *config.Config, engine *telemetry.Engine, client ai.Client, prompt *ai.PromptBuilder, speaker voice.Speaker, store *db.DB, sessionID string) {
	recorder, err := voice.NewRecorder()
	if err != nil {
		monitoring.Logf("Failed to open microphone: %v; falling back to text input", err)
		runTextLoop(ctx, engine, client, prompt, speaker, store, sessionID)
		return
	}
	defer recorder.Close()

	transcriber := voice.NewWhisperServer(cfg.GetWhisperURL(), 30*time.Second)

	fmt.Println("Press Enter to talk, Enter again to stop (Ctrl-D to quit):")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-lines:
			if !ok {
				return
			}
			if !recorder.IsRecording() {
				if err := recorder.Start(); err != nil {
					monitoring.Logf("Failed to start recording: %v", err)
					continue
				}
				fmt.Println("Recording... press Enter to stop.")
				continue
			}

			samples := recorder.Stop()
			question, err := transcriber.Transcribe(ctx, samples)
			if err != nil {
				monitoring.Logf("Transcription failed: %v", err)
				continue
			}
			question = strings.TrimSpace(question)
			if question == "" {
				fmt.Println("Didn't catch that.")
				continue
			}
			fmt.Printf("You: %s\n", question)
			ask(ctx, question, engine, client, prompt, speaker, store, sessionID)
		}
	}
}

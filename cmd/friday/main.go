package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nelssec/friday-agent/config"
	"github.com/nelssec/friday-agent/internal/agent"
	"github.com/nelssec/friday-agent/internal/api"
	"github.com/nelssec/friday-agent/internal/credentials"
	"github.com/nelssec/friday-agent/internal/llm"
	"github.com/nelssec/friday-agent/internal/telephony"
	"github.com/nelssec/friday-agent/internal/voice"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfg         *config.Config
	logger      zerolog.Logger
	forceLocal  bool
	forceCloud  bool
	llmProvider string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "friday [message]",
		Short: "AI mental health assistant with emergency dispatch",
		Long: `Friday is an AI mental health assistant. Each message is routed to a
direct answer, a therapist-persona model, or an outbound emergency
phone call, based on a single model classification per turn.

LLM Provider Options:
  --local        Force the local Ollama model (requires Ollama running)
  --cloud        Force the Claude API (requires ANTHROPIC_API_KEY)
  --llm <name>   Select "local", "cloud", or "auto" (also LLM_PROVIDER env)
  (default)      Auto-route; safety-sensitive messages prefer the cloud model

Examples:
  friday "What's the weather like on Mars?"
  friday chat
  friday chat --voice
  friday serve --port 8000`,
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}

			level, _ := zerolog.ParseLevel(cfg.LogLevel)
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Timestamp().
				Logger()

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runAsk(strings.Join(args, " "))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&forceLocal, "local", "l", false, "Use local Ollama model")
	rootCmd.PersistentFlags().BoolVarP(&forceCloud, "cloud", "c", false, "Use Claude API")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm", "", "LLM provider: local, cloud, or auto (default: LLM_PROVIDER env)")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	var voiceReplies bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long:  "Start an interactive session with Friday; registers your name and phone for the emergency tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(voiceReplies)
		},
	}

	cmd.Flags().BoolVar(&voiceReplies, "voice", false, "Synthesize replies to WAV files")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(strings.Join(args, " "))
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				cfg.ServerPort = port
			}
			return runServer()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: 8000)")
	return cmd
}

func createAgent() *agent.Agent {
	hybrid := llm.NewHybridRouter(
		cfg.OllamaURL,
		cfg.OllamaModel,
		cfg.AnthropicAPIKey,
		cfg.AnthropicModel,
		cfg.PreferLocal,
	)

	if hybrid.LocalAvailable() {
		logger.Info().Str("model", cfg.OllamaModel).Msg("local Ollama available")
	}
	if cfg.AnthropicAPIKey != "" {
		logger.Info().Msg("Claude API available")
	}

	// Flag beats env; the boolean shorthands beat both.
	provider := llmProvider
	if provider == "" {
		provider = cfg.LLMProvider
	}
	switch {
	case forceLocal:
		provider = "local"
	case forceCloud:
		provider = "cloud"
	}
	router := hybrid.Select(provider)

	var dialer agent.Dialer
	if cfg.TelephonyConfigured() {
		dialer = telephony.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioVoiceURL, logger)
	} else {
		logger.Warn().Msg("telephony not configured; emergency calls degrade to a direct-dial message")
	}

	specialist := llm.NewOllamaClient(cfg.OllamaURL, cfg.TherapistModel)
	toolHandler := agent.NewToolHandler(specialist, dialer, logger)

	return agent.New(router, toolHandler, logger)
}

func runChat(voiceReplies bool) error {
	ag := createAgent()

	var tts *voice.Client
	if voiceReplies {
		if !cfg.TTSConfigured() {
			return fmt.Errorf("voice replies require GEMINI_API_KEY")
		}
		tts = voice.NewClient(cfg.GeminiAPIKey, cfg.TTSModel, cfg.TTSVoice, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nTake care of yourself!")
		cancel()
		os.Exit(0)
	}()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Your name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}

	fmt.Print("Your phone (used only for emergency calls, Enter to skip): ")
	phone, _ := reader.ReadString('\n')
	phone = strings.TrimSpace(phone)

	sessionContext := api.SessionContext(name, phone)

	fmt.Println()
	fmt.Printf("Hello %s, I'm Friday. Type 'exit' or 'quit' to end the session.\n", name)
	fmt.Println()

	for {
		fmt.Print("You: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			fmt.Println("Take care of yourself!")
			return nil
		}

		fmt.Println()
		fmt.Print("Friday is thinking...")

		result, err := ag.Respond(ctx, agent.Turn{Message: input, SessionContext: sessionContext})
		if err != nil {
			fmt.Printf("\rError: %v\n\n", err)
			continue
		}

		fmt.Print("\r")
		fmt.Printf("Friday: %s\n", result.Response)
		if result.ToolCalled != agent.NoTool {
			fmt.Printf("(tool used: %s)\n", result.ToolCalled)
		}

		if tts != nil && result.Response != "" {
			if path, err := speak(ctx, tts, result.Response); err != nil {
				fmt.Printf("(voice synthesis failed: %v)\n", err)
			} else {
				fmt.Printf("(voice reply saved to %s)\n", path)
			}
		}

		fmt.Println()
	}
}

func speak(ctx context.Context, tts *voice.Client, text string) (string, error) {
	audio, err := tts.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("friday-%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(path, audio.WAV(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	return path, nil
}

func runAsk(message string) error {
	ag := createAgent()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := ag.Respond(ctx, agent.Turn{Message: message, SessionContext: api.SessionContext("there", "")})
	if err != nil {
		return err
	}

	fmt.Println(result.Response)
	if result.ToolCalled != agent.NoTool {
		fmt.Printf("(tool used: %s)\n", result.ToolCalled)
	}
	return nil
}

func runServer() error {
	ag := createAgent()
	server := api.NewServer(ag, cfg.ServerPort, logger)

	return server.Start()
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage credentials stored in OS keychain",
		Long: `Manage API credentials stored securely in your OS keychain.

Credentials are stored in:
  - macOS: Keychain Access
  - Windows: Credential Manager
  - Linux: Secret Service (GNOME Keyring)

Examples:
  friday config setup          # Interactive setup
  friday config show           # Show configured credentials
  friday config clear          # Remove all stored credentials`,
	}

	cmd.AddCommand(configSetupCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configClearCmd())

	return cmd
}

func configSetupCmd() *cobra.Command {
	var anthropicKey, twilioToken, geminiKey string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure API credentials",
		Long:  "Interactively configure and store API credentials in OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if anthropicKey == "" {
				fmt.Print("Anthropic API Key (press Enter to skip): ")
				key, _ := readPassword()
				anthropicKey = strings.TrimSpace(key)
			}

			if twilioToken == "" {
				fmt.Print("Twilio Auth Token (press Enter to skip): ")
				token, _ := readPassword()
				twilioToken = strings.TrimSpace(token)
			}

			if geminiKey == "" {
				fmt.Print("Gemini API Key for TTS (press Enter to skip): ")
				key, _ := readPassword()
				geminiKey = strings.TrimSpace(key)
			}

			if err := credentials.Setup(anthropicKey, twilioToken, geminiKey); err != nil {
				return fmt.Errorf("failed to store credentials: %w", err)
			}

			fmt.Println("\nCredentials stored securely in OS keychain.")
			fmt.Println("You can now run friday without setting environment variables.")
			return nil
		},
	}

	cmd.Flags().StringVar(&anthropicKey, "anthropic-key", "", "Anthropic API key")
	cmd.Flags().StringVar(&twilioToken, "twilio-token", "", "Twilio auth token")
	cmd.Flags().StringVar(&geminiKey, "gemini-key", "", "Gemini API key (TTS)")

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show configured credentials",
		Long:  "Display which credentials are configured in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured := credentials.ListConfigured()

			fmt.Println("Credential Status (stored in OS keychain):")
			fmt.Println("==========================================")

			status := func(ok bool) string {
				if ok {
					return "configured"
				}
				return "not set"
			}

			fmt.Printf("  Anthropic API Key:  %s\n", status(configured[credentials.KeyAnthropic]))
			fmt.Printf("  Twilio Auth Token:  %s\n", status(configured[credentials.KeyTwilioToken]))
			fmt.Printf("  Gemini API Key:     %s\n", status(configured[credentials.KeyGemini]))

			fmt.Println("\nNote: Environment variables override keychain values.")
			return nil
		},
	}
}

func configClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all stored credentials",
		Long:  "Remove all credentials from the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Are you sure you want to clear all stored credentials? [y/N]: ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))

			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}

			if err := credentials.ClearAll(); err != nil {
				fmt.Printf("Warning: some credentials may not have been cleared: %v\n", err)
			}

			fmt.Println("All credentials cleared from keychain.")
			return nil
		},
	}
}

func readPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println()
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		return string(bytes), err
	}
	reader := bufio.NewReader(os.Stdin)
	return reader.ReadString('\n')
}

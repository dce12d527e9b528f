package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluque/mailpilot/internal/config"
	"github.com/aluque/mailpilot/internal/db"
	"github.com/aluque/mailpilot/internal/gmail"
	"github.com/aluque/mailpilot/internal/llm"
	"github.com/aluque/mailpilot/internal/services"
	"github.com/aluque/mailpilot/internal/version"
	"github.com/aluque/mailpilot/pkg/auth"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/mailpilot/config.json)")
	credPathFlag := flag.String("credentials", "", "Path to OAuth client credentials JSON (default: ~/.config/mailpilot/credentials.json)")
	tabFlag := flag.String("tab", services.TabInbox, "View to print (Inbox, Sent, Starred, Archive, Trash, Spam, or a category)")
	searchFlag := flag.String("search", "", "Filter the view by a free-text query")
	summarizeFlag := flag.String("summarize", "", "Print an AI summary for the given message ID")
	pagesFlag := flag.Int("pages", 1, "Number of pages to load")
	setupFlag := flag.Bool("setup", false, "Run interactive setup wizard")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Print the inbox\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --tab Finance          # Print one category view\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --setup                # Run interactive setup wizard\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json   # Use custom configuration\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MAILPILOT_CONFIG      Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  MAILPILOT_CREDENTIALS Override default credentials file path\n")
		fmt.Fprintf(os.Stderr, "  MAILPILOT_TOKEN       Override default token file path\n\n")
		fmt.Fprintf(os.Stderr, "For all other settings (AI endpoint, fetch sizes, etc.), edit the config file.\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	if *setupFlag {
		runSetupWizard()
		return
	}

	configPath := getConfigPath(*configPathFlag)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	credPath := getCredentialsPath(*credPathFlag, cfg.Credentials)
	tokenPath := getTokenPath("", cfg.Token)

	if credPath == "" {
		log.Fatal("Gmail credentials file is required. Provide it via --credentials or config file.")
	}
	if _, err := os.Stat(credPath); err != nil {
		log.Fatalf("Credentials file not found at %s. Download client credentials from Google Cloud Console and place it there.", credPath)
	}

	ctx := context.Background()
	service, err := auth.NewGmailService(ctx, credPath, tokenPath,
		"https://www.googleapis.com/auth/gmail.readonly",
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/gmail.modify",
		"https://www.googleapis.com/auth/gmail.compose",
	)
	if err != nil {
		log.Fatalf("Could not initialize Gmail service: %v", err)
	}

	gmailClient := gmail.NewClient(service)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			logger = log.New(f, "", log.LstdFlags)
		} else {
			log.Printf("Warning: could not open log file: %v", err)
		}
	}

	var aiClient *llm.Client
	if cfg.AI.Enabled && cfg.AI.Endpoint != "" {
		aiClient = llm.NewClient(cfg.AI.Endpoint, cfg.GetAITimeout())
	}

	accountEmail, err := gmailClient.ActiveAccountEmail()
	if err != nil {
		log.Printf("Warning: could not resolve account email: %v", err)
	}

	var cacheService services.CacheService
	if cfg.AI.CacheEnabled {
		if store, err := db.Open(ctx, cacheDBPath(cfg, accountEmail)); err == nil {
			defer store.Close()
			cs := services.NewCacheService(db.NewCacheStore(store))
			cs.SetLogger(logger)
			cacheService = cs
		} else {
			log.Printf("Warning: could not open cache store: %v", err)
		}
	}

	repo := services.NewMessageRepository(gmailClient)
	emailStore := services.NewEmailStore()
	categorizer := services.NewCategorizer(aiClient)
	categorizer.SetLogger(logger)

	fetcher := services.NewFetchService(repo, categorizer, emailStore, services.FetchOptions{
		PageSize:   cfg.Fetch.PageSize,
		MaxWorkers: cfg.Fetch.MaxWorkers,
		BodyPolicy: cfg.BodyPolicy(),
	})
	fetcher.SetLogger(logger)

	labelService := services.NewLabelService(gmailClient)
	viewService := services.NewViewService()

	if _, err := fetcher.Refresh(ctx); err != nil {
		log.Fatalf("Could not fetch emails: %v", err)
	}
	for i := 1; i < *pagesFlag && !fetcher.AllLoaded(); i++ {
		if _, err := fetcher.LoadMore(ctx); err != nil {
			log.Printf("Warning: could not load page %d: %v", i+1, err)
			break
		}
	}

	labels, err := labelService.ListLabels(ctx)
	if err != nil {
		log.Printf("Warning: could not list labels: %v", err)
	}

	emails := emailStore.Snapshot()
	view := viewService.SelectView(emails, labels, *tabFlag)
	if *searchFlag != "" {
		view = viewService.Search(view, *searchFlag)
	}

	printView(*tabFlag, accountEmail, view, viewService.TabCounts(emails, labels))

	if *summarizeFlag != "" {
		aiService := services.NewAIService(aiClient, cacheService)
		aiService.SetLogger(logger)

		email, ok := emailStore.Get(*summarizeFlag)
		if !ok {
			log.Fatalf("Message %s is not loaded. Increase --pages or check the ID.", *summarizeFlag)
		}
		result, err := aiService.SummarizeEmail(ctx, email, services.SummaryOptions{
			AccountEmail: accountEmail,
			Detail:       cfg.AI.SummaryDetail,
			UseCache:     cfg.AI.CacheEnabled,
		})
		if err != nil {
			log.Fatalf("Could not summarize message: %v", err)
		}
		fmt.Println()
		fmt.Printf("Summary of %s (cached: %v, %s):\n%s\n", *summarizeFlag, result.FromCache, result.Duration, result.Summary)
	}
}

func printView(tab, accountEmail string, view []*gmail.Email, counts map[string]int) {
	if accountEmail != "" {
		fmt.Printf("%s\n", accountEmail)
	}
	fmt.Printf("%s (%d)\n\n", tab, len(view))
	for _, e := range view {
		marker := " "
		if e.Unread {
			marker = "*"
		}
		fmt.Printf("%s %-28s %-44s %s [%s]\n", marker, truncateCol(e.From, 28), truncateCol(e.Subject, 44), e.Date, e.Category)
	}

	fmt.Println()
	for _, t := range services.BuiltinTabs {
		fmt.Printf("%s:%d  ", t, counts[t])
	}
	fmt.Println()
}

func truncateCol(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// cacheDBPath resolves the SQLite path, one database per account
func cacheDBPath(cfg *config.Config, accountEmail string) string {
	baseDir := config.DefaultCacheDir()
	if cfg.AI.CachePath != "" {
		baseDir = cfg.AI.CachePath
	}
	if ext := filepath.Ext(baseDir); ext != "" && ext != "." {
		return baseDir
	}
	safe := strings.ToLower(strings.TrimSpace(accountEmail))
	safe = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "@", "_", " ", "_").Replace(safe)
	if safe == "" {
		safe = "default"
	}
	return filepath.Join(baseDir, safe+".sqlite3")
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILPILOT_CONFIG
// 3. Default path ~/.config/mailpilot/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILPILOT_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}

	return config.DefaultConfigPath()
}

// getCredentialsPath returns the credentials file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILPILOT_CREDENTIALS
// 3. Config file setting
// 4. Default path ~/.config/mailpilot/credentials.json
func getCredentialsPath(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILPILOT_CREDENTIALS"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	credPath, _ := config.DefaultCredentialPaths()
	return credPath
}

// getTokenPath returns the token file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILPILOT_TOKEN
// 3. Config file setting
// 4. Default path ~/.config/mailpilot/token.json
func getTokenPath(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILPILOT_TOKEN"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	_, tokenPath := config.DefaultCredentialPaths()
	return tokenPath
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}

// runSetupWizard walks the user through first-time configuration
func runSetupWizard() {
	fmt.Println("mailpilot setup")
	fmt.Println("===============")
	fmt.Println()

	defaultConfigPath := config.DefaultConfigPath()
	credPath, tokenPath := config.DefaultCredentialPaths()

	if _, err := os.Stat(defaultConfigPath); err == nil {
		fmt.Printf("Configuration file already exists: %s\n", defaultConfigPath)
	} else {
		fmt.Printf("Will create configuration file: %s\n", defaultConfigPath)
	}

	if _, err := os.Stat(credPath); err == nil {
		fmt.Printf("Credentials file found: %s\n", credPath)
	} else {
		fmt.Printf("Credentials file missing: %s\n", credPath)
		fmt.Println()
		fmt.Println("To set up Gmail API credentials:")
		fmt.Println("1. Go to https://console.cloud.google.com/")
		fmt.Println("2. Create a new project or select existing one")
		fmt.Println("3. Enable Gmail API")
		fmt.Println("4. Create OAuth 2.0 credentials (Desktop application)")
		fmt.Println("5. Download the JSON file and save it as:")
		fmt.Printf("   %s\n", credPath)
		fmt.Println()
	}

	if _, err := os.Stat(tokenPath); err == nil {
		fmt.Printf("Token file exists: %s\n", tokenPath)
	} else {
		fmt.Printf("Token will be created on first login: %s\n", tokenPath)
	}

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		fmt.Println()
		fmt.Print("Create default configuration file? [Y/n]: ")

		var response string
		_, _ = fmt.Scanln(&response)

		if response == "" || strings.ToLower(response) == "y" || strings.ToLower(response) == "yes" {
			cfg := config.DefaultConfig()
			if err := cfg.SaveConfig(defaultConfigPath); err != nil {
				fmt.Printf("Failed to create config file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Created configuration file: %s\n", defaultConfigPath)
		}
	}

	fmt.Println()
	fmt.Println("Setup complete! You can now run:")
	fmt.Printf("   %s\n", os.Args[0])
}

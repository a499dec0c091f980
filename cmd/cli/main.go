package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mediatracker/pkg/models"
	"mediatracker/pkg/utils"
)

const defaultBaseURL = "http://localhost:8080"

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type searchResponse struct {
	Results []models.Candidate `json:"results"`
}

type bestResponse struct {
	Result *models.Candidate `json:"result"`
}

func main() {
	global := flag.NewFlagSet("mediatracker", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	grpcAddr := global.String("grpc", "", "gRPC address; when set, search commands use gRPC instead of HTTP")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	utils.SetupLogger(utils.LoadServerConfig().LogLevel)

	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	rest := args[1:]
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
	}

	c := &apiClient{
		http:      &http.Client{Timeout: 60 * time.Second},
		baseURL:   strings.TrimRight(*baseURL, "/"),
		tokenPath: *tokenPath,
	}

	switch cmd {
	case "auth":
		handleAuth(ctx, c, sub, tail(rest))
	case "search", "best":
		handleSearch(ctx, c, *grpcAddr, cmd == "best", rest)
	case "details":
		handleDetails(ctx, c, *grpcAddr, rest)
	case "capture":
		handleCapture(ctx, c, rest)
	case "library":
		handleLibrary(ctx, c, sub, tail(rest))
	case "watch":
		handleWatch(c, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func tail(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return args[1:]
}

func handleAuth(ctx context.Context, c *apiClient, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		password := fs.String("password", os.Getenv("MEDIATRACKER_PASSWORD"), "owner password")
		_ = fs.Parse(args)
		if *password == "" {
			log.Fatal().Msg("password is required")
		}

		var resp tokenResponse
		if err := c.doJSON(ctx, http.MethodPost, "/auth/token", false, map[string]string{"password": *password}, &resp); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
		if err := saveToken(c.tokenPath, resp.Token); err != nil {
			log.Fatal().Err(err).Msg("save token")
		}
		fmt.Printf("logged in (expires %s)\n", resp.ExpiresAt)
	case "logout":
		if err := clearToken(c.tokenPath); err != nil {
			log.Fatal().Err(err).Msg("logout failed")
		}
		fmt.Println("logged out")
	case "whoami":
		var resp map[string]any
		if err := c.doJSON(ctx, http.MethodGet, "/auth/me", true, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("whoami failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: mediatracker auth <login|logout|whoami>")
	}
}

func handleSearch(ctx context.Context, c *apiClient, grpcAddr string, best bool, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	typ := fs.String("type", "auto", "media type or auto")
	_ = fs.Parse(args)
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		log.Fatal().Msg("usage: mediatracker search|best [-type T] <query>")
	}

	if grpcAddr != "" {
		gc, closeFn := mustGRPC(grpcAddr)
		defer closeFn()
		if best {
			resp, err := grpcBest(ctx, gc, query, *typ)
			if err != nil {
				log.Fatal().Err(err).Msg("best failed")
			}
			printJSON(resp)
			return
		}
		resp, err := grpcSearch(ctx, gc, query, *typ)
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		printJSON(resp)
		return
	}

	payload := map[string]string{"query": query, "type": *typ}
	if best {
		var resp bestResponse
		if err := c.doJSON(ctx, http.MethodPost, "/api/search/best", false, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("best failed")
		}
		printJSON(resp)
		return
	}
	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/search", false, payload, &resp); err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}
	printJSON(resp)
}

func handleDetails(ctx context.Context, c *apiClient, grpcAddr string, args []string) {
	fs := flag.NewFlagSet("details", flag.ExitOnError)
	id := fs.String("id", "", "catalog id")
	typ := fs.String("type", "", "media type")
	source := fs.String("source", "", "originating catalog (only needed for anime found via the screen catalog)")
	_ = fs.Parse(args)
	if *id == "" || *typ == "" {
		log.Fatal().Msg("id and type are required")
	}

	if grpcAddr != "" {
		gc, closeFn := mustGRPC(grpcAddr)
		defer closeFn()
		resp, err := grpcDetails(ctx, gc, *id, *typ, *source)
		if err != nil {
			log.Fatal().Err(err).Msg("details failed")
		}
		printJSON(resp)
		return
	}

	qv := url.Values{}
	qv.Set("id", *id)
	qv.Set("type", *typ)
	if *source != "" {
		qv.Set("source", *source)
	}
	var resp map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/details?"+qv.Encode(), false, nil, &resp); err != nil {
		log.Fatal().Err(err).Msg("details failed")
	}
	printJSON(resp)
}

func handleCapture(ctx context.Context, c *apiClient, args []string) {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	identifyOnly := fs.Bool("identify", false, "identify only, do not search or save")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal().Msg("usage: mediatracker capture [-identify] <image-file>")
	}

	image, err := encodeImageFile(fs.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("read image")
	}

	path := "/api/capture"
	if *identifyOnly {
		path = "/api/capture/identify"
	}
	var resp map[string]any
	if err := c.doJSON(ctx, http.MethodPost, path, true, map[string]string{"image": image}, &resp); err != nil {
		log.Fatal().Err(err).Msg("capture failed")
	}
	printJSON(resp)
}

func handleLibrary(ctx context.Context, c *apiClient, sub string, args []string) {
	switch sub {
	case "add":
		fs := flag.NewFlagSet("library add", flag.ExitOnError)
		typ := fs.String("type", "auto", "media type or auto")
		_ = fs.Parse(args)
		query := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(query) == "" {
			log.Fatal().Msg("usage: mediatracker library add [-type T] <query>")
		}

		var best bestResponse
		if err := c.doJSON(ctx, http.MethodPost, "/api/search/best", false, map[string]string{"query": query, "type": *typ}, &best); err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		if best.Result == nil {
			log.Fatal().Str("query", query).Msg("no match found")
		}
		var rec models.TrackedRecord
		if err := c.doJSON(ctx, http.MethodPost, "/api/library", true, best.Result, &rec); err != nil {
			log.Fatal().Err(err).Msg("add failed")
		}
		printJSON(rec)
	case "list":
		fs := flag.NewFlagSet("library list", flag.ExitOnError)
		typ := fs.String("type", "", "media type filter")
		status := fs.String("status", "", "status filter")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		qv := url.Values{}
		if *typ != "" {
			qv.Set("type", *typ)
		}
		if *status != "" {
			qv.Set("status", *status)
		}
		qv.Set("limit", fmt.Sprintf("%d", *limit))
		qv.Set("offset", fmt.Sprintf("%d", *offset))

		var resp map[string]any
		if err := c.doJSON(ctx, http.MethodGet, "/api/library?"+qv.Encode(), true, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(resp)
	case "status":
		fs := flag.NewFlagSet("library status", flag.ExitOnError)
		id := fs.String("id", "", "record id")
		status := fs.String("set", "", "new status (want, in_progress, done)")
		_ = fs.Parse(args)
		if *id == "" || *status == "" {
			log.Fatal().Msg("id and set are required")
		}

		var rec models.TrackedRecord
		if err := c.doJSON(ctx, http.MethodPatch, "/api/library/"+url.PathEscape(*id), true, map[string]string{"status": *status}, &rec); err != nil {
			log.Fatal().Err(err).Msg("status update failed")
		}
		printJSON(rec)
	case "remove":
		fs := flag.NewFlagSet("library remove", flag.ExitOnError)
		id := fs.String("id", "", "record id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal().Msg("id is required")
		}

		var resp map[string]any
		if err := c.doJSON(ctx, http.MethodDelete, "/api/library/"+url.PathEscape(*id), true, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("remove failed")
		}
		printJSON(resp)
	default:
		log.Fatal().Msg("usage: mediatracker library <add|list|status|remove>")
	}
}

func handleWatch(c *apiClient, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
	_ = fs.Parse(args)

	endpoint := *wsURL
	if endpoint == "" {
		var err error
		endpoint, err = websocketURL(c.baseURL, "/ws")
		if err != nil {
			log.Fatal().Err(err).Msg("ws url")
		}
	}
	token, err := readToken(c.tokenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("not logged in: run `mediatracker auth login`")
	}
	var last uint64
	for {
		if err := runWebSocket(endpoint, token, &last); err != nil {
			log.Warn().Err(err).Msg("watch disconnected")
		}
		time.Sleep(1 * time.Second)
	}
}

func printUsage() {
	fmt.Println("mediatracker [-api URL] [-grpc ADDR] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout|whoami")
	fmt.Println("  search [-type T] <query>")
	fmt.Println("  best [-type T] <query>")
	fmt.Println("  details -id ID -type T [-source S]")
	fmt.Println("  capture [-identify] <image-file>")
	fmt.Println("  library add|list|status|remove")
	fmt.Println("  watch")
}
